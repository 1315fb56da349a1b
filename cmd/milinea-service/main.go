package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/milinea/milinea-backend/internal/api"
	"github.com/milinea/milinea-backend/internal/chat"
	"github.com/milinea/milinea-backend/internal/config"
	"github.com/milinea/milinea-backend/internal/geocode"
	"github.com/milinea/milinea-backend/internal/intent"
	"github.com/milinea/milinea-backend/internal/places"
	"github.com/milinea/milinea-backend/internal/platform/logger"
	"github.com/milinea/milinea-backend/internal/routing"
	"github.com/milinea/milinea-backend/internal/session"
	"github.com/milinea/milinea-backend/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("milinea-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("cost_model", cfg.CostModel).
		Msg("Transit assistant starting…")

	// -------- Storage layer -----------------
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Postgres unavailable")
	}
	st := postgres.NewWithDB(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	if err := st.HealthPing(pingCtx); err != nil {
		cancelPing()
		log.Fatal().Err(err).Msg("Postgres unavailable")
	}
	cancelPing()

	// -------- Place state -------------------

	bounds := cfg.Bounds()
	cache := places.NewCache(filepath.Join(cfg.StateDir, "data_place_cache.json"), bounds, log)
	cache.Load()
	cache.PurgeOutOfBounds()
	cache.StartPersist(ctx, cfg.CacheFlushPeriod)

	tracker := places.NewTracker(filepath.Join(cfg.StateDir, "data_unresolved_terms.json"), log)
	tracker.Load()
	tracker.PurgeOld(cfg.UnresolvedMaxAgeDays)
	tracker.StartPersist(ctx, cfg.UnresolvedFlush)

	// -------- Pipeline ----------------------
	geocoder := geocode.NewMapbox(cfg.MapboxToken, cfg.ProximityLng, cfg.ProximityLat)
	resolver := places.NewResolver(cache, geocoder, bounds, cfg.CityContext, log)

	var modelExtractor intent.ModelExtractor
	if cfg.GeminiKey != "" {
		modelExtractor = intent.NewGemini(cfg.GeminiKey)
	}
	extractor := intent.NewExtractor(modelExtractor, log)

	sessions := session.NewStore(cfg.SessionTTL, log)
	sessions.StartSweep(ctx, cfg.SessionSweep)

	costFn := routing.GlobalSpeedCost
	if cfg.CostModel == config.CostModelPerLine {
		costFn = routing.PerLineCost
	}
	engine := routing.NewEngine(st.Routes(), costFn, log)
	chatSvc := chat.NewService(cfg, extractor, resolver, tracker, sessions, engine, log)

	// The coordinate endpoint keeps the per-line cost model the catalog was
	// curated with.
	fastestEngine := routing.NewEngine(st.Routes(), routing.PerLineCost, log)

	// -------- Router & Server --------------
	router := api.NewRouter(api.Deps{
		Cfg:           cfg,
		Store:         st,
		Chat:          chatSvc,
		FastestEngine: fastestEngine,
		Tracker:       tracker,
	})
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
