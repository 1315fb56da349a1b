package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/milinea/milinea-backend/internal/api/respond"
	"github.com/milinea/milinea-backend/internal/model"
	"github.com/milinea/milinea-backend/internal/store"
)

// CatalogHandler serves read-only views of the line catalog.
type CatalogHandler struct {
	catalog store.Catalog
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalog store.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListLines handles GET /lines.
func (h *CatalogHandler) ListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.catalog.ListLines(r.Context())
	if err != nil {
		log.Error().Stack().Err(err).Msg("list lines failed")
		respond.WriteInternalError(w, "internal error")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "data": lines})
}

// ListDirections handles GET /lines/directions?q=.
func (h *CatalogHandler) ListDirections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	dirs, err := h.catalog.ListDirections(r.Context(), q)
	if err != nil {
		log.Error().Stack().Err(err).Msg("list directions failed")
		respond.WriteInternalError(w, "internal error")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "query": q, "data": dirs})
}

// featureCollection wraps one geometry as a GeoJSON FeatureCollection for
// map rendering.
func featureCollection(id int64, geom json.RawMessage) map[string]interface{} {
	return map[string]interface{}{
		"type": "FeatureCollection",
		"features": []map[string]interface{}{{
			"type":       "Feature",
			"id":         id,
			"properties": map[string]interface{}{},
			"geometry":   geom,
		}},
	}
}

// LineRoutes handles GET /lines/{id}/routes.
func (h *CatalogHandler) LineRoutes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respond.WriteBadRequest(w, "invalid id")
		return
	}

	line, geoms, err := h.catalog.LineRoutes(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "line not found")
			return
		}
		log.Error().Stack().Err(err).Msg("line routes failed")
		respond.WriteInternalError(w, "internal error")
		return
	}

	routes := map[string]interface{}{"outbound": nil, "inbound": nil}
	for _, g := range geoms {
		if g.Direction == "outbound" || g.Direction == "inbound" {
			routes[g.Direction] = featureCollection(g.LineDirectionID, g.Geometry)
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "line": line, "routes": routes})
}

// DirectionRoute handles GET /directions/{id}/route.
func (h *CatalogHandler) DirectionRoute(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respond.WriteBadRequest(w, "invalid id")
		return
	}

	d, err := h.catalog.DirectionRoute(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "direction not found")
			return
		}
		log.Error().Stack().Err(err).Msg("direction route failed")
		respond.WriteInternalError(w, "internal error")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"direction":      d.LineDirection,
		"geometry":       d.Geometry,
		"length_m_total": d.LengthM,
	})
}
