// Package places maintains the persistent place cache, the unresolved-term
// tracker and the multi-strategy resolver that turns place labels into
// in-bounds coordinates.
package places

import (
	"regexp"
	"strings"
)

// normalizeKey trims, lower-cases and collapses internal whitespace so label
// variants share one cache entry. Idempotent.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Longest alternatives first so "del" is not split into "de"+"l".
var leadingArticle = regexp.MustCompile(`^(?i:del|de|los|las|la|el|al)\s+`)

// sanitizePlaceText lowers the label and strips a leading Spanish article or
// preposition. Applied twice to absorb doubled articles ("de la Cancha").
func sanitizePlaceText(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	t = leadingArticle.ReplaceAllString(t, "")
	t = leadingArticle.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}
