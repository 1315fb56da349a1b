package places

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/geo"
	"github.com/milinea/milinea-backend/internal/geocode"
	"github.com/milinea/milinea-backend/internal/model"
)

// Resolver turns a raw place label into in-bounds coordinates. Strategies
// are tried in order and the first in-bounds hit wins:
//
//  1. cache lookup on the raw label
//  2. direct geocode of the raw label
//  3. geocode of the sanitized label with the city context appended
//  4. geocode of the raw label with the city context appended, only when
//     step 2 produced an out-of-bounds result
//
// A nil result is a miss; the caller decides whether to register it with
// the unresolved tracker. Geocoder failures are treated as misses for the
// strategy that hit them.
type Resolver struct {
	cache       *Cache
	geocoder    geocode.Geocoder
	bounds      geo.Bounds
	cityContext string
	log         zerolog.Logger
}

// NewResolver wires a resolver from its collaborators. cityContext is the
// suffix appended on contextual retries, e.g. "Cochabamba Bolivia".
func NewResolver(cache *Cache, geocoder geocode.Geocoder, bounds geo.Bounds, cityContext string, log zerolog.Logger) *Resolver {
	return &Resolver{
		cache:       cache,
		geocoder:    geocoder,
		bounds:      bounds,
		cityContext: cityContext,
		log:         log.With().Str("component", "place_resolver").Logger(),
	}
}

// Resolve maps a raw label to an in-bounds place, or nil when every
// strategy misses.
func (r *Resolver) Resolve(ctx context.Context, labelRaw string) *model.ResolvedPlace {
	original := strings.TrimSpace(labelRaw)
	if original == "" {
		return nil
	}

	if pt, ok := r.cache.Get(original); ok && r.bounds.Contains(pt.Lng, pt.Lat) {
		r.log.Debug().Str("label", original).Msg("cache hit")
		return &model.ResolvedPlace{Lng: pt.Lng, Lat: pt.Lat, Label: original, Source: model.SourceCache}
	}

	direct := r.geocodeQuiet(ctx, original)
	if direct != nil && r.bounds.Contains(direct.Lng, direct.Lat) {
		r.cache.Set(original, model.Point{Lng: direct.Lng, Lat: direct.Lat})
		return &model.ResolvedPlace{Lng: direct.Lng, Lat: direct.Lat, Label: original, Source: model.SourceGeocode}
	}

	sanitized := sanitizePlaceText(original)
	if sanitized != "" && sanitized != original {
		withCtx := r.geocodeQuiet(ctx, sanitized+" "+r.cityContext)
		if withCtx != nil && r.bounds.Contains(withCtx.Lng, withCtx.Lat) {
			pt := model.Point{Lng: withCtx.Lng, Lat: withCtx.Lat}
			r.cache.Set(original, pt)
			r.cache.Set(sanitized, pt)
			return &model.ResolvedPlace{Lng: withCtx.Lng, Lat: withCtx.Lat, Label: original, Source: model.SourceSanitizedContext}
		}
	}

	// A direct hit outside the city usually means the geocoder picked a
	// same-named place elsewhere; retry with the city context appended.
	if direct != nil && !r.bounds.Contains(direct.Lng, direct.Lat) {
		reCtx := r.geocodeQuiet(ctx, original+" "+r.cityContext)
		if reCtx != nil && r.bounds.Contains(reCtx.Lng, reCtx.Lat) {
			r.cache.Set(original, model.Point{Lng: reCtx.Lng, Lat: reCtx.Lat})
			return &model.ResolvedPlace{Lng: reCtx.Lng, Lat: reCtx.Lat, Label: original, Source: model.SourceContextAppended}
		}
	}

	return nil
}

func (r *Resolver) geocodeQuiet(ctx context.Context, query string) *geocode.Result {
	res, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		r.log.Debug().Err(err).Str("query", query).Msg("geocode failed")
		return nil
	}
	return res
}
