package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ivasko/courtline/internal/adapters/geocode"
	"github.com/ivasko/courtline/internal/adapters/http/api"
	app "github.com/ivasko/courtline/internal/app"
	"github.com/ivasko/courtline/internal/config"
	"github.com/ivasko/courtline/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	hoursPerDay       = 24
)

func main() {
	// Disable default Go metrics collection; the pipeline registers its
	// own metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	evaluatedAt := time.Now().UTC()
	if cfg.EvaluationDate != "" {
		parsed, err := time.Parse(time.RFC3339, cfg.EvaluationDate)
		if err != nil {
			os.Stderr.WriteString("invalid evaluation_date: " + err.Error() + "\n")
			os.Exit(1)
		}
		evaluatedAt = parsed.UTC()
	}

	resolver := geocode.NewNominatim(
		geocode.WithEndpoint(cfg.GeocodeEndpoint),
		geocode.WithTimeout(time.Duration(cfg.GeocodeTimeoutMS)*time.Millisecond),
		geocode.WithCountryCode(cfg.CountryCode),
	)

	svc := app.New(cfg.InputDir, cfg.OutputDir,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithChurnWindow(time.Duration(cfg.ChurnWindowDays)*hoursPerDay*time.Hour),
		app.WithThreshold(cfg.ParticipationThreshold),
		app.WithGenderConfidenceMin(cfg.GenderConfidenceMin),
		app.WithVenue(*cfg.VenueLat, *cfg.VenueLng),
		app.WithEvaluationDate(evaluatedAt),
		app.WithGeocodeCachePath(cfg.GeocodeCachePath),
		app.WithResolver(resolver),
	)
	defer func() { _ = svc.Close() }()

	if _, err := svc.Run(ctx); err != nil {
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		os.Exit(1)
	}

	// Batch mode: no listen address means run, emit, exit.
	if cfg.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
