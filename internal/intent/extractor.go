package intent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/model"
)

// Extractor combines the model-based extractor with the deterministic
// fallback under an explicit precedence policy. The fallback always runs
// first (cheap, offline); the model result, when available, wins only if it
// detected a route with at least one populated slot.
type Extractor struct {
	model ModelExtractor // nil when no extraction key is configured
	log   zerolog.Logger
}

// NewExtractor builds an extractor. Pass a nil ModelExtractor to run on the
// deterministic fallback alone.
func NewExtractor(m ModelExtractor, log zerolog.Logger) *Extractor {
	return &Extractor{model: m, log: log.With().Str("component", "intent_extractor").Logger()}
}

// Extract derives trip intent from a message. It never fails; degraded
// paths are reported through the Used tag.
func (e *Extractor) Extract(ctx context.Context, message string) model.TripIntent {
	fb := Fallback(message)

	if e.model == nil {
		fb.Used = "fallback-only"
		return fb
	}

	g, err := e.model.Extract(ctx, message)
	if err != nil {
		e.log.Warn().Err(err).Msg("model extraction failed, using fallback")
		fb.Used = "fallback-error-" + errorReason(err)
		fb.ModelError = err.Error()
		return fb
	}

	if g.Intent == model.IntentRoute && (g.OriginText != "" || g.DestinationText != "") {
		g.Used = "gemini"
		return *g
	}

	if fb.Intent == model.IntentRoute && (fb.OriginText != "" || fb.DestinationText != "") {
		fb.Used = "fallback-after-gemini"
		fb.ModelRaw = g.ModelRaw
		return fb
	}

	return model.TripIntent{
		Intent:   model.IntentUnknown,
		Language: "es",
		Used:     "none",
		ModelRaw: g.ModelRaw,
	}
}

func errorReason(err error) string {
	if strings.HasPrefix(err.Error(), "parse:") {
		return "parse"
	}
	return "gemini"
}
