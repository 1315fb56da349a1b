package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Plaza   Principal ", "plaza principal"},
		{"UMSS", "umss"},
		{"san  martín \t y aroma", "san martín y aroma"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizeKey(c.in), "normalizeKey(%q)", c.in)
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	labels := []string{"  La   Cancha ", "Av. Heroínas", "plaza  14 de septiembre", ""}
	for _, l := range labels {
		once := normalizeKey(l)
		assert.Equal(t, once, normalizeKey(once), "normalizeKey not idempotent for %q", l)
	}
}

func TestSanitizePlaceText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"la UMSS", "umss"},
		{"el estadio", "estadio"},
		{"de la Cancha", "cancha"},
		{"del prado", "prado"},
		{"al estadio Capriles", "estadio capriles"},
		{"Cancha", "cancha"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, sanitizePlaceText(c.in), "sanitizePlaceText(%q)", c.in)
	}
}
