package api

import (
	"github.com/gorilla/mux"

	"github.com/milinea/milinea-backend/internal/api/recovery"
	"github.com/milinea/milinea-backend/internal/chat"
	"github.com/milinea/milinea-backend/internal/config"
	"github.com/milinea/milinea-backend/internal/places"
	"github.com/milinea/milinea-backend/internal/routing"
	"github.com/milinea/milinea-backend/internal/store"
)

// Deps are the wired collaborators the router needs.
type Deps struct {
	Cfg           *config.Config
	Store         store.Store
	Chat          *chat.Service
	FastestEngine *routing.Engine
	Tracker       *places.Tracker
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	chatHandler := NewChatHandler(d.Chat)
	fastestHandler := NewFastestHandler(d.FastestEngine, d.Cfg)
	catalogHandler := NewCatalogHandler(d.Store.Catalog())
	adminHandler := NewAdminHandler(d.Tracker)
	healthHandler := NewHealthHandler(d.Store)

	router.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")

	router.HandleFunc("/chat", chatHandler.HandleChat).Methods("POST")
	router.HandleFunc("/routes/fastest", fastestHandler.HandleFastest).Methods("POST")

	// Catalog (read-only). The directions listing must register before the
	// {id} route so "directions" is not parsed as a line id.
	router.HandleFunc("/lines/directions", catalogHandler.ListDirections).Methods("GET")
	router.HandleFunc("/lines", catalogHandler.ListLines).Methods("GET")
	router.HandleFunc("/lines/{id:[0-9]+}/routes", catalogHandler.LineRoutes).Methods("GET")
	router.HandleFunc("/directions/{id:[0-9]+}/route", catalogHandler.DirectionRoute).Methods("GET")

	router.HandleFunc("/admin/unresolved", adminHandler.ListUnresolved).Methods("GET")

	router.HandleFunc("/", Root).Methods("GET")

	return router
}
