// Package main runs the underwriting service:
// - HTTP API (underwriting, training, promotion, labels, audit)
// - Prometheus metrics on a separate listener
// - Scheduled retraining of configured tenants (never promotes)
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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/scheduler"
	"underwriting-lab/internal/server"
)

const shutdownTimeout = 30 * time.Second

var retrainOnStart bool

func main() {
	root := &cobra.Command{
		Use:          "server",
		Short:        "Run the underwriting API",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().BoolVar(&retrainOnStart, "retrain-now", false, "Run the retrain job once at startup")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return fmt.Errorf("create services: %w", err)
	}
	defer a.Close()

	api := server.New(server.Config{
		Addr:        cfg.HTTPAddr,
		Log:         log,
		Metrics:     a.Metrics,
		Underwriter: a.Underwriter,
		Registry:    a.Registry,
		Guardrail:   a.Guardrail,
		Builder:     a.Builder,
		Reporter:    a.Reporter,
		Memo:        a.Memo,
		Reports:     a.Stores.Reports,
		Feedback:    a.Stores.Feedback,
		Outcomes:    a.Stores.Outcomes,
		Audit:       a.Stores.Audit,
		APIKeys:     apiActors(cfg.APIKeys),
	})
	if len(cfg.APIKeys) == 0 {
		log.Warn().Msg("API_KEYS not set: API is open and callers cannot override guardrails")
	}

	sched, err := startScheduler(cfg, a, log)
	if err != nil {
		return err
	}
	if sched != nil {
		defer sched.Stop()
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Starting metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		if err := api.Start(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received signal, initiating graceful shutdown")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
		cancel()
		return err
	}

	// A second signal forces an immediate exit.
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("Received second signal, forcing immediate shutdown")
		os.Exit(1)
	}()

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics shutdown")
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

// startScheduler registers the retrain job when RETRAIN_SCHEDULE is set, or
// when a one-off retrain was requested. Returns nil when neither applies.
func startScheduler(cfg *config.Config, a *app.App, log zerolog.Logger) (*scheduler.Scheduler, error) {
	if cfg.RetrainSchedule == "" && !retrainOnStart {
		return nil, nil
	}
	if len(cfg.RetrainTenants) == 0 {
		return nil, errors.New("RETRAIN_TENANTS is required for retraining")
	}

	if cfg.RetrainSchedule != "" {
		if err := scheduler.ValidateSchedule(cfg.RetrainSchedule); err != nil {
			return nil, fmt.Errorf("invalid RETRAIN_SCHEDULE %q: %w", cfg.RetrainSchedule, err)
		}
	}

	sched := scheduler.New(log, cfg.RetrainTimeout)
	job := scheduler.NewRetrainJob(a.Orchestrator(cfg.RetrainTenants))

	if cfg.RetrainSchedule != "" {
		if err := sched.AddJob(cfg.RetrainSchedule, job); err != nil {
			return nil, err
		}
	}
	sched.Start()

	if retrainOnStart {
		go func() {
			if err := sched.RunNow(job); err != nil {
				log.Error().Err(err).Msg("startup retrain failed")
			}
		}()
	}
	return sched, nil
}

func apiActors(keys []config.APIKey) map[string]domain.Actor {
	actors := make(map[string]domain.Actor, len(keys))
	for _, k := range keys {
		actors[k.Key] = domain.Actor{ID: k.ActorID, Role: k.Role}
	}
	return actors
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
