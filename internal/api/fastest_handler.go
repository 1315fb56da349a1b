package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/milinea/milinea-backend/internal/api/respond"
	"github.com/milinea/milinea-backend/internal/config"
	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/routing"
)

// FastestHandler exposes the route matching engine directly on coordinate
// pairs, bypassing the conversational pipeline.
type FastestHandler struct {
	engine *routing.Engine
	cfg    *config.Config
}

// NewFastestHandler creates a fastest-route handler.
func NewFastestHandler(engine *routing.Engine, cfg *config.Config) *FastestHandler {
	return &FastestHandler{engine: engine, cfg: cfg}
}

type fastestRequest struct {
	Origin      *model.Point `json:"origin"`
	Destination *model.Point `json:"destination"`
	ThresholdM  *float64     `json:"threshold_m,omitempty"`
	WalkKmh     *float64     `json:"walk_kmh,omitempty"`
	BusKmh      *float64     `json:"bus_kmh,omitempty"`
}

func validPoint(p *model.Point) bool {
	return p != nil &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0) &&
		!math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0)
}

// HandleFastest handles POST /routes/fastest.
func (h *FastestHandler) HandleFastest(w http.ResponseWriter, r *http.Request) {
	var req fastestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Origin == nil || req.Destination == nil {
		respond.WriteBadRequest(w, "origin and destination required. Format: {origin:{lng,lat}, destination:{lng,lat}}")
		return
	}
	if !validPoint(req.Origin) || !validPoint(req.Destination) {
		respond.WriteBadRequest(w, "Invalid coordinates")
		return
	}

	params := routing.Params{
		ThresholdM: h.cfg.ThresholdM,
		WalkKmh:    h.cfg.WalkKmh,
		BusKmh:     h.cfg.BusKmh,
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

	result, err := h.engine.Search(r.Context(), *req.Origin, *req.Destination, params)
	if err != nil {
		log.Error().Stack().Err(err).Msg("fastest search failed")
		respond.WriteInternalError(w, "internal error")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"params": map[string]interface{}{
			"threshold_m":      result.ThresholdInitial,
			"threshold_m_used": result.ThresholdUsedM,
			"walk_kmh":         params.WalkKmh,
			"bus_kmh":          params.BusKmh,
		},
		"results": result.Options,
	})
}
