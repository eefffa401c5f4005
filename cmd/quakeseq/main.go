// Command quakeseq queries the USGS event service for recent significant
// earthquakes and writes them to stdout as a SineEnv note sequence.
//
// With -serve it instead runs an HTTP server that renders a fresh sequence
// on every GET /sequence.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quakeseq/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quakeseq/internal/adapter/kafka"
	"github.com/couchcryptid/quakeseq/internal/adapter/mapbox"
	"github.com/couchcryptid/quakeseq/internal/adapter/usgs"
	"github.com/couchcryptid/quakeseq/internal/config"
	"github.com/couchcryptid/quakeseq/internal/domain"
	"github.com/couchcryptid/quakeseq/internal/observability"
	"github.com/couchcryptid/quakeseq/internal/pipeline"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP server instead of rendering once to stdout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	metrics := observability.NewMetrics()

	fetcher := usgs.NewClient(usgs.Options{
		BaseURL:      cfg.USGSBaseURL,
		Timeout:      cfg.USGSTimeout,
		WindowDays:   cfg.QueryWindowDays,
		MinMagnitude: cfg.QueryMinMagnitude,
	}, metrics, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publication enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(fetcher, publisher, geocoder, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	if *serve {
		serveHTTP(ctx, cfg, p, logger)
	} else {
		runErr = p.Run(ctx, os.Stdout)
	}
	stop()

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Prime readiness with a first fetch.
	go func() {
		if _, err := p.Render(ctx); err != nil {
			logger.Warn("initial render failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
