package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/config"
	"github.com/Dosada05/volley-tournament/db"
	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/handlers"
	"github.com/Dosada05/volley-tournament/metrics"
	"github.com/Dosada05/volley-tournament/repositories"
	api "github.com/Dosada05/volley-tournament/routes"
	"github.com/Dosada05/volley-tournament/services"
	"github.com/Dosada05/volley-tournament/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	logger.Info().Int("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("application stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("application exited")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database connection")
		} else {
			logger.Info().Msg("database connection closed")
		}
	}()
	logger.Info().Msg("database connection established")

	if cfg.MigrateOnStart {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	catalog, err := formats.Load(cfg.FormatsDir)
	if err != nil {
		return fmt.Errorf("failed to load format catalog: %w", err)
	}
	logger.Info().Int("formats", len(catalog.List())).Str("dir", cfg.FormatsDir).Msg("format catalog loaded")

	var archive services.PlanArchiver
	r2 := storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
	}
	if r2.Enabled() {
		objects, err := storage.NewCloudflareR2Store(ctx, r2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
		}
		archive = storage.NewPlanArchive(objects, "")
		logger.Info().Str("bucket", cfg.R2BucketName).Msg("schedule plan archive enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := broadcast.NewHub()
	events := broadcast.NotifierFunc(func(ctx context.Context, e broadcast.Event) {
		log.Ctx(ctx).Debug().Str("signal", string(e.Signal)).Str("match_id", e.MatchID).Msg("event delivered")
	})

	engine := services.NewEngine(services.Deps{
		Store:            repositories.NewPostgresStore(dbConn),
		Catalog:          catalog,
		Notifier:         broadcast.Fanout(hub, events),
		Archive:          archive,
		Metrics:          metrics.NewMetrics(registry),
		DefaultMaxCourts: cfg.PlayoffMaxCourts,
	})
	tournamentService := services.NewTournamentService(engine)

	router := chi.NewRouter()
	api.SetupRoutes(router, logger, cfg.CORSAllowedOrigins, api.Handlers{
		Tournaments: handlers.NewTournamentHandler(tournamentService, services.NewPoolService(engine)),
		Schedule:    handlers.NewScheduleHandler(services.NewScheduleService(engine)),
		Matches:     handlers.NewMatchHandler(services.NewMatchService(engine)),
		Standings:   handlers.NewStandingsHandler(services.NewStandingsService(engine)),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournamentService, cfg.CORSAllowedOrigins),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gCtx)
		logger.Info().Msg("websocket hub stopped")
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("address", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Dur("timeout", shutdownTimeout).Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to force close server")
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info().Msg("server shutdown complete")
		return nil
	})
	return g.Wait()
}
