// Package app wires configuration into the stores and services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"underwriting-lab/internal/config"
	"underwriting-lab/internal/governance"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/memo"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/orchestrator"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/reporting"
	"underwriting-lab/internal/storage"
	chstore "underwriting-lab/internal/storage/clickhouse"
	"underwriting-lab/internal/storage/memory"
	"underwriting-lab/internal/storage/migrations"
	pgstore "underwriting-lab/internal/storage/postgres"
	"underwriting-lab/internal/storage/sqlite"
	"underwriting-lab/internal/training"
	"underwriting-lab/internal/underwriting"
)

// Stores holds every storage implementation.
type Stores struct {
	Models   storage.ModelStore
	Reports  storage.ReportStore
	Feedback storage.FeedbackStore
	Outcomes storage.OutcomeStore
	Audit    storage.AuditStore
	Cursors  storage.RetrainCursorStore
	Runs     storage.RunStore
}

// OpenStores creates the configured relational stores and migrates them. Run
// analytics go to ClickHouse when CLICKHOUSE_DSN is set and stay in process
// memory otherwise. The returned cleanup closes every connection.
func OpenStores(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, log zerolog.Logger) (*Stores, func(), error) {
	var stores *Stores
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		stores = &Stores{
			Models:   memory.NewModelStore(),
			Reports:  memory.NewReportStore(),
			Feedback: memory.NewFeedbackStore(),
			Outcomes: memory.NewOutcomeStore(),
			Audit:    memory.NewAuditStore(),
			Cursors:  memory.NewRetrainCursorStore(),
		}

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		stores = &Stores{
			Models:   sqlite.NewModelStore(db),
			Reports:  sqlite.NewReportStore(db),
			Feedback: sqlite.NewFeedbackStore(db),
			Outcomes: sqlite.NewOutcomeStore(db),
			Audit:    sqlite.NewAuditStore(db),
			Cursors:  sqlite.NewRetrainCursorStore(db),
		}

	case config.BackendPostgres:
		pool, err := pgstore.NewInstrumentedPool(ctx, cfg.PostgresDSN, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		stores = &Stores{
			Models:   pgstore.NewModelStore(pool),
			Reports:  pgstore.NewReportStore(pool),
			Feedback: pgstore.NewFeedbackStore(pool),
			Outcomes: pgstore.NewOutcomeStore(pool),
			Audit:    pgstore.NewAuditStore(pool),
			Cursors:  pgstore.NewRetrainCursorStore(pool),
		}

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.Runs = chstore.NewRunStore(conn)
	} else {
		stores.Runs = memory.NewRunStore()
	}

	log.Info().
		Str("backend", cfg.StorageBackend).
		Bool("clickhouse", cfg.ClickhouseDSN != "").
		Msg("stores ready")

	return stores, cleanup, nil
}

// App is the assembled service graph.
type App struct {
	Config      *config.Config
	Log         zerolog.Logger
	Metrics     *observability.Metrics
	Stores      *Stores
	Registry    *registry.Registry
	Underwriter *underwriting.Service
	Guardrail   *governance.Guardrail
	Builder     *training.Builder
	Reporter    *reporting.Generator
	Memo        memo.Generator

	cleanup func()
}

// New opens the stores and builds every service. A nil promReg registers
// metrics with the default Prometheus registry.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, promReg prometheus.Registerer) (*App, error) {
	metrics := observability.NewMetrics("", promReg)

	stores, cleanup, err := OpenStores(ctx, cfg, metrics, log)
	if err != nil {
		return nil, err
	}
	reg := registry.New(stores.Models)

	a := &App{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics,
		Stores:   stores,
		Registry: reg,
		Memo:     memo.Disabled{},
		cleanup:  cleanup,
	}

	a.Underwriter = underwriting.NewService(underwriting.ServiceOptions{
		Registry: reg,
		Reports:  stores.Reports,
		Runs:     stores.Runs,
		Metrics:  metrics,
		Logger:   log,
	})
	a.Guardrail = governance.New(GuardrailConfig(cfg), reg, stores.Outcomes, stores.Audit, metrics, log)
	a.Builder = training.NewBuilder(TrainingConfig(cfg), stores.Reports, stores.Feedback, stores.Outcomes, reg, metrics, log)
	a.Reporter = reporting.NewGenerator(stores.Runs, reg)

	if cfg.OpenAIAPIKey != "" {
		gen, err := memo.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
		if err != nil {
			cleanup()
			return nil, err
		}
		a.Memo = gen
	}
	return a, nil
}

// Orchestrator builds a retrain orchestrator over tenants.
func (a *App) Orchestrator(tenants []string) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Builder:  a.Builder,
		Cursors:  a.Stores.Cursors,
		Tenants:  tenants,
		RunStore: a.Stores.Runs,
		Metrics:  a.Metrics,
		Logger:   a.Log,
	})
}

// Close releases every store connection.
func (a *App) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

// GuardrailConfig maps configuration to guardrail thresholds.
func GuardrailConfig(cfg *config.Config) governance.Config {
	return governance.Config{
		Enabled:           cfg.GuardrailsEnabled,
		MinLinkedOutcomes: cfg.GuardrailMinLinkedOutcomes,
		MinF1Margin:       cfg.GuardrailMinF1Margin,
	}
}

// TrainingConfig maps configuration to dataset and SGD settings.
func TrainingConfig(cfg *config.Config) training.Config {
	tc := training.DefaultConfig()
	tc.Train.LearningRate = cfg.TrainLearningRate
	tc.Train.Epochs = cfg.TrainEpochs
	tc.Train.L2 = cfg.TrainL2
	tc.Train.ValFraction = cfg.TrainValFraction
	tc.Train.MinRows = cfg.TrainMinRows
	tc.Labels = learning.LabelConfig{
		IRRThreshold:   cfg.LabelIRRThreshold,
		MaxVacancyDays: cfg.LabelMaxVacancyDays,
	}
	return tc
}
