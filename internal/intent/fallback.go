// Package intent derives trip intent (origin/destination texts) from a raw
// user message. A model-based extractor does the heavy lifting when
// configured; a deterministic pattern extractor covers the common Spanish
// phrasings offline and serves as the fallback.
package intent

import (
	"regexp"
	"strings"

	"github.com/milinea/milinea-backend/internal/model"
)

// Recognized Spanish sentence patterns. Coverage is intentionally narrow:
// "desde X a/hasta/hacia Y", "ir/llegar/voy a X" and "qué línea me lleva a X".
var (
	fullTripRe = regexp.MustCompile(`(?i)\bdes(?:de)?\s+(.+?)\s+(?:a|hasta|hacia)\s+(.+)`)
	destOnlyRe = regexp.MustCompile(`(?i)\b(?:ir|llegar|llevar|llego|voy|quiero ir|como llego)\s+(?:a|al|a la)\s+(.+)`)
	lineToRe   = regexp.MustCompile(`(?i)\b(?:que|qué)\s+linea\s+me\s+lleva\s+(?:a|al|a la)\s+(.+)`)

	outerQuotesRe    = regexp.MustCompile(`^["'“”‘’]+|["'“”‘’]+$`)
	leadingArticleRe = regexp.MustCompile(`^(?i:del|de|los|las|la|el|al)\s+`)
)

func cleanSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripOuterQuotes(s string) string {
	return outerQuotesRe.ReplaceAllString(s, "")
}

func removeLeadingArticle(s string) string {
	return strings.TrimSpace(leadingArticleRe.ReplaceAllString(s, ""))
}

func cleanSlot(s string) string {
	return removeLeadingArticle(stripOuterQuotes(cleanSpaces(s)))
}

// Fallback extracts trip intent deterministically. It never fails; messages
// matching no pattern come back with unknown intent and empty slots.
func Fallback(message string) model.TripIntent {
	if strings.TrimSpace(message) == "" {
		return model.TripIntent{Intent: model.IntentUnknown, Source: "fallback"}
	}

	if m := fullTripRe.FindStringSubmatch(message); m != nil {
		o := cleanSlot(m[1])
		d := cleanSlot(m[2])
		if o != "" && d != "" {
			return model.TripIntent{
				OriginText:      o,
				DestinationText: d,
				Intent:          model.IntentRoute,
				Source:          "fallback-pattern",
			}
		}
	}

	if m := destOnlyRe.FindStringSubmatch(message); m != nil {
		return model.TripIntent{
			DestinationText: cleanSlot(m[1]),
			Intent:          model.IntentRoute,
			Source:          "fallback-destination-only",
		}
	}

	if m := lineToRe.FindStringSubmatch(message); m != nil {
		return model.TripIntent{
			DestinationText: cleanSlot(m[1]),
			Intent:          model.IntentRoute,
			Source:          "fallback-line-to",
		}
	}

	return model.TripIntent{Intent: model.IntentUnknown, Source: "fallback-none"}
}
