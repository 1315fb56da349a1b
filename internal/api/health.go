package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/milinea/milinea-backend/internal/api/respond"
	"github.com/milinea/milinea-backend/internal/store"
)

// HealthHandler reports database connectivity and spatial extension
// versions.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

// CheckHealth handles GET /health.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	pg, postgis, err := h.store.Versions(r.Context())
	if err != nil {
		log.Error().Stack().Err(err).Msg("health check failed")
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "pg": pg, "postgis": postgis})
}

// Root handles GET /.
func Root(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "service": "milinea-backend"})
}
