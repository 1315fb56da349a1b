package api

import (
	"net/http"
	"strconv"

	"github.com/milinea/milinea-backend/internal/api/respond"
	"github.com/milinea/milinea-backend/internal/places"
)

// AdminHandler exposes curation views over the unresolved-term tracker.
type AdminHandler struct {
	tracker *places.Tracker
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(tracker *places.Tracker) *AdminHandler {
	return &AdminHandler{tracker: tracker}
}

// ListUnresolved handles GET /admin/unresolved?min_hits=N.
func (h *AdminHandler) ListUnresolved(w http.ResponseWriter, r *http.Request) {
	minHits := 2
	if v := r.URL.Query().Get("min_hits"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minHits = n
		}
	}
	data := h.tracker.List(minHits)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"min_hits": minHits,
		"count":    len(data),
		"data":     data,
	})
}
