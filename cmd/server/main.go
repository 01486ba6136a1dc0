// Command server runs the credit default risk scoring API. It loads the
// model artifact set at startup, refuses to serve if any artifact is missing
// or malformed, and exposes prediction, metadata, and health endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"credrisk/internal/artifact"
	"credrisk/internal/platform/config"
	"credrisk/internal/platform/httpserver"
	"credrisk/internal/platform/logger"
	"credrisk/internal/scoring"
	scoringhandler "credrisk/internal/scoring/handler"
	"credrisk/internal/scoring/metrics"
	"credrisk/internal/system"
	httptransport "credrisk/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config may itself be broken, so fall back to stderr.
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	health := system.NewHealth()
	health.Set(system.StateLoading)

	bundle, err := artifact.Load(cfg.ModelPath(), cfg.SignaturePath(), cfg.MetadataPath())
	if err != nil {
		log.Error("artifact loading failed, refusing to serve", "error", err)
		os.Exit(1)
	}
	log.Info("artifacts loaded",
		"features", bundle.Signature.NumFields(),
		"id_column", bundle.Signature.IDColumn,
		"threshold", bundle.Metadata.Threshold,
	)

	svc := scoring.New(bundle,
		scoring.WithLogger(log),
		scoring.WithMetrics(metrics.New()),
		scoring.WithMaxBatchRows(cfg.MaxBatchRows),
	)

	router := httptransport.NewRouter(
		scoringhandler.New(svc, log),
		system.NewHandler(health),
		health,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health.Set(system.StateReady)
	log.Info("starting credit risk API", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		health.Set(system.StateShuttingDown)
		log.Info("shutting down")

		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
