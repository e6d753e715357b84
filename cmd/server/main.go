package main

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/adapters/geocode"
	"itinerary-planner-service/internal/adapters/storage"
	"itinerary-planner-service/internal/adapters/tiles"
	"itinerary-planner-service/internal/api"
	"itinerary-planner-service/internal/config"
	"itinerary-planner-service/internal/platform/logging"
	"itinerary-planner-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

// run is the application composition root.
// It wires concrete adapters (storage, Nominatim, tiles) behind ports and serves HTTP
// until a signal arrives. Deferred closes run before main exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, storage.Options{
		Backend:      cfg.StoreBackend,
		SQLitePath:   cfg.DBPath,
		DatabaseURL:  cfg.DatabaseURL,
		RedisAddr:    cfg.RedisAddr,
		RedisPass:    cfg.RedisPassword,
		RedisDB:      cfg.RedisDB,
		RedisPrefix:  cfg.RedisPrefix,
		GeocodeCache: cfg.GeocodeCache,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer backend.Close()

	geocoder := geocode.NewNominatimClient(geocode.NominatimConfig{
		BaseURL:     cfg.NominatimURL,
		UserAgent:   cfg.NominatimUserAgent,
		Email:       cfg.NominatimEmail,
		Timeout:     cfg.GeocodeTimeout,
		MinInterval: cfg.GeocodeMinInterval,
	})
	resolver := services.NewGeocodeResolver(geocoder, backend.GeocodeCache, cfg.GeocodeTimeout)

	manager := services.NewItineraryManager(backend.KV, services.ManagerOptions{
		Resolver:       resolver,
		DiscardCorrupt: !cfg.StrictState,
	})
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("load itinerary state: %w", err)
	}
	defer manager.Close()

	proxy, err := tiles.NewProxy(tiles.Config{
		Upstream:     cfg.TileUpstream,
		Subdomains:   cfg.TileSubdomains,
		CacheEntries: cfg.TileCacheEntries,
		Timeout:      cfg.TileTimeout,
		UserAgent:    cfg.NominatimUserAgent,
	})
	if err != nil {
		return fmt.Errorf("tile proxy: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Manager:   manager,
		Resolver:  resolver,
		Tiles:     proxy,
		TileStats: proxy.Stats,
	})

	// Timeouts leave room for a slow geocoder or tile upstream.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", backend.Name).
			Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	return serveErr
}
