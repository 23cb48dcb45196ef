// Package main writes tenant activity reports: a Markdown score summary and
// the raw run snapshots as CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/reporting"
)

var (
	tenants   []string
	outputDir string
	days      int
)

func main() {
	root := &cobra.Command{
		Use:          "report",
		Short:        "Write tenant underwriting activity reports",
		Long:         "Summarizes recent runs from the analytics store (ClickHouse when CLICKHOUSE_DSN is set).",
		SilenceUsage: true,
		RunE:         run,
	}
	f := root.Flags()
	f.StringSliceVar(&tenants, "tenant", nil, "Tenants to report on (repeatable; default RETRAIN_TENANTS)")
	f.StringVar(&outputDir, "output-dir", "reports", "Output directory for generated files")
	f.IntVar(&days, "days", 30, "Report window in days")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if len(tenants) == 0 {
		tenants = cfg.RetrainTenants
	}
	if len(tenants) == 0 {
		return fmt.Errorf("no tenants: pass --tenant or set RETRAIN_TENANTS")
	}
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	window := time.Duration(days) * 24 * time.Hour
	for _, tenant := range tenants {
		rep, err := a.Reporter.Generate(ctx, tenant, window)
		if err != nil {
			return fmt.Errorf("generate %s: %w", tenant, err)
		}

		mdPath := filepath.Join(outputDir, tenant+"_activity.md")
		if err := os.WriteFile(mdPath, []byte(reporting.RenderTenantMarkdown(rep)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", mdPath, err)
		}

		runsCSV, err := reporting.RenderRunsCSV(rep.Runs)
		if err != nil {
			return err
		}
		csvPath := filepath.Join(outputDir, tenant+"_runs.csv")
		if err := os.WriteFile(csvPath, []byte(runsCSV), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d runs -> %s, %s\n", tenant, len(rep.Runs), mdPath, csvPath)
	}
	return nil
}
