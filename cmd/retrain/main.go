// Package main runs one retrain pass: link outcomes, train candidates for
// tenants with new labels, summarize recent runs. Nothing is promoted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/logger"
)

var tenants []string

func main() {
	root := &cobra.Command{
		Use:          "retrain",
		Short:        "Retrain candidate models for tenants once",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringSliceVar(&tenants, "tenant", nil, "Tenants to retrain (repeatable; default RETRAIN_TENANTS)")

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

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := a.Orchestrator(tenants)
	res, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Retrain completed: %d candidates\n", res.CandidatesTrained)
	for _, tr := range res.Tenants {
		fmt.Fprintf(out, "  %s: linked %d, trained %v\n", tr.TenantID, tr.OutcomesLinked, tr.Trained)
		for _, s := range tr.Skipped {
			fmt.Fprintf(out, "    skipped %s\n", s)
		}
	}
	if len(res.Errors) > 0 {
		fmt.Fprintf(out, "  Errors: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "    - %s\n", e)
		}
		return fmt.Errorf("%d tenant errors", len(res.Errors))
	}
	return nil
}
