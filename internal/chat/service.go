// Package chat orchestrates the trip-resolution pipeline: intent
// extraction, place resolution, session slot filling, route matching and
// reply formatting.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/config"
	"github.com/milinea/milinea-backend/internal/geo"
	"github.com/milinea/milinea-backend/internal/intent"
	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/places"
	"github.com/milinea/milinea-backend/internal/routing"
	"github.com/milinea/milinea-backend/internal/session"
)

// Request is one conversational turn.
type Request struct {
	Message    string       `json:"message"`
	Origin     *model.Point `json:"origin,omitempty"`
	SessionID  string       `json:"session_id,omitempty"`
	ThresholdM *float64     `json:"threshold_m,omitempty"`
	WalkKmh    *float64     `json:"walk_kmh,omitempty"`
	BusKmh     *float64     `json:"bus_kmh,omitempty"`
}

// Needs flags the conversational slots still missing.
type Needs struct {
	Origin      bool `json:"origin,omitempty"`
	Destination bool `json:"destination,omitempty"`
}

// TripParams echoes the parameters a search ran with.
type TripParams struct {
	ThresholdMInitial float64 `json:"threshold_m_initial"`
	ThresholdMUsed    float64 `json:"threshold_m_used"`
	WalkKmh           float64 `json:"walk_kmh"`
	BusKmh            float64 `json:"bus_kmh"`
}

// Fastest is the ranked result set.
type Fastest struct {
	Results []*model.RouteOption `json:"results"`
	Best    *model.RouteOption   `json:"best"`
}

// Meta carries request diagnostics.
type Meta struct {
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Response is the conversational reply. Exactly one of the outcome shapes
// is populated: Needs (slots missing), Fastest (search ran), or neither
// (smalltalk / unknown intent).
type Response struct {
	OK          bool                 `json:"ok"`
	SessionID   string               `json:"session_id"`
	Intent      *model.TripIntent    `json:"intent,omitempty"`
	Origin      *model.ResolvedPlace `json:"origin,omitempty"`
	Destination *model.ResolvedPlace `json:"destination,omitempty"`
	Needs       *Needs               `json:"needs,omitempty"`
	Params      *TripParams          `json:"params,omitempty"`
	Fastest     *Fastest             `json:"fastest,omitempty"`
	Reply       string               `json:"reply"`
	Meta        *Meta                `json:"meta,omitempty"`
}

// Service ties the pipeline together.
type Service struct {
	cfg        *config.Config
	extractor  *intent.Extractor
	resolver   *places.Resolver
	unresolved *places.Tracker
	sessions   *session.Store
	engine     *routing.Engine
	bounds     geo.Bounds
	log        zerolog.Logger
	now        func() time.Time
}

// NewService wires the chat pipeline.
func NewService(
	cfg *config.Config,
	extractor *intent.Extractor,
	resolver *places.Resolver,
	unresolved *places.Tracker,
	sessions *session.Store,
	engine *routing.Engine,
	log zerolog.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		extractor:  extractor,
		resolver:   resolver,
		unresolved: unresolved,
		sessions:   sessions,
		engine:     engine,
		bounds:     cfg.Bounds(),
		log:        log.With().Str("component", "chat").Logger(),
		now:        time.Now,
	}
}

// Handle runs one conversational turn. Validation problems return
// model.ErrValidation; only spatial-store failures surface as other errors.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	started := s.now()

	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", model.ErrValidation)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = session.NewID()
	}
	sess := s.sessions.Ensure(sessionID)

	ti := s.extractor.Extract(ctx, req.Message)
	s.log.Debug().
		Str("session", sessionID).
		Str("used", ti.Used).
		Str("intent", string(ti.Intent)).
		Msg("intent extracted")

	if ti.Intent == model.IntentSmalltalk {
		return &Response{
			OK:        true,
			SessionID: sessionID,
			Intent:    &ti,
			Reply:     "Soy tu asistente de líneas. ¿A dónde quieres ir?",
		}, nil
	}

	// GPS origin wins unconditionally when in bounds; no geocoding needed.
	var resolvedOrigin *model.ResolvedPlace
	if req.Origin != nil {
		if s.bounds.Contains(req.Origin.Lng, req.Origin.Lat) {
			resolvedOrigin = &model.ResolvedPlace{
				Lng:    req.Origin.Lng,
				Lat:    req.Origin.Lat,
				Label:  "Tu ubicación",
				Source: model.SourceGPS,
			}
			s.sessions.SetOrigin(sessionID, resolvedOrigin)
		} else {
			s.log.Debug().Float64("lng", req.Origin.Lng).Float64("lat", req.Origin.Lat).Msg("gps origin out of bounds, ignored")
		}
	}

	if resolvedOrigin == nil && ti.OriginText != "" {
		resolvedOrigin = s.resolver.Resolve(ctx, ti.OriginText)
		if resolvedOrigin != nil {
			s.sessions.SetOrigin(sessionID, resolvedOrigin)
		} else {
			s.unresolved.Register(ti.OriginText)
		}
	}

	if ti.DestinationText == "" && sess.Destination == nil {
		return &Response{
			OK:        true,
			SessionID: sessionID,
			Intent:    &ti,
			Needs:     &Needs{Destination: true},
			Reply:     `¿A dónde quieres ir? (ej: "UMSS", "San Martín y Aroma")`,
		}, nil
	}

	var resolvedDestination *model.ResolvedPlace
	if ti.DestinationText != "" {
		resolvedDestination = s.resolver.Resolve(ctx, ti.DestinationText)
		if resolvedDestination != nil {
			s.sessions.SetDestination(sessionID, resolvedDestination)
		} else {
			s.unresolved.Register(ti.DestinationText)
			return &Response{
				OK:        true,
				SessionID: sessionID,
				Intent:    &ti,
				Needs:     &Needs{Destination: true},
				Reply:     fmt.Sprintf("No pude ubicar “%s”. Dame otra referencia cercana o un cruce.", ti.DestinationText),
			}, nil
		}
	} else {
		resolvedDestination = sess.Destination
	}

	if resolvedOrigin == nil && sess.Origin != nil {
		resolvedOrigin = sess.Origin
	}

	if resolvedDestination != nil && resolvedOrigin == nil {
		return &Response{
			OK:          true,
			SessionID:   sessionID,
			Intent:      &ti,
			Destination: resolvedDestination,
			Needs:       &Needs{Origin: true},
			Reply:       fmt.Sprintf("Envíame tu ubicación actual para calcular la mejor línea hacia %s.", resolvedDestination.Label),
		}, nil
	}

	if resolvedOrigin == nil || resolvedDestination == nil {
		return &Response{
			OK:        true,
			SessionID: sessionID,
			Intent:    &ti,
			Needs:     &Needs{Origin: resolvedOrigin == nil, Destination: resolvedDestination == nil},
			Reply:     "Necesito origen y destino para calcular.",
		}, nil
	}

	params := routing.Params{
		ThresholdM: s.cfg.ThresholdM,
		WalkKmh:    s.cfg.WalkKmh,
		BusKmh:     s.cfg.BusKmh,
	}
	if req.ThresholdM != nil {
		params.ThresholdM = *req.ThresholdM
	}
	if req.WalkKmh != nil {
		params.WalkKmh = *req.WalkKmh
	}
	if req.BusKmh != nil {
		params.BusKmh = *req.BusKmh
	}

	result, err := s.engine.Search(ctx, resolvedOrigin.Point(), resolvedDestination.Point(), params)
	if err != nil {
		return nil, err
	}

	var best *model.RouteOption
	if len(result.Options) > 0 {
		best = result.Options[0]
	}

	return &Response{
		OK:          true,
		SessionID:   sessionID,
		Intent:      &ti,
		Origin:      resolvedOrigin,
		Destination: resolvedDestination,
		Params: &TripParams{
			ThresholdMInitial: result.ThresholdInitial,
			ThresholdMUsed:    result.ThresholdUsedM,
			WalkKmh:           params.WalkKmh,
			BusKmh:            params.BusKmh,
		},
		Fastest: &Fastest{Results: result.Options, Best: best},
		Reply:   FormatResults(result.Options),
		Meta:    &Meta{ElapsedMs: s.now().Sub(started).Milliseconds()},
	}, nil
}
