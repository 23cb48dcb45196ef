// Package main trains a candidate model for a tenant from stored labels.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/training"
)

var (
	tenantID string
	source   string
	name     string
	autoLink bool
)

func main() {
	root := &cobra.Command{
		Use:          "train",
		Short:        "Train a candidate model",
		Long:         "Builds a dataset from feedback or linked outcomes and stores a new candidate. Candidates are never activated here.",
		SilenceUsage: true,
		RunE:         run,
	}
	f := root.Flags()
	f.StringVar(&tenantID, "tenant", "", "Tenant to train")
	f.StringVar(&source, "source", string(training.SourceOutcomes), "Label source: feedback or outcomes")
	f.StringVar(&name, "name", "", "Candidate name (default <source>-<unix time>)")
	f.BoolVar(&autoLink, "autolink", true, "Link unlinked outcomes to reports before training")
	_ = root.MarkFlagRequired("tenant")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := training.ParseSource(source)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if autoLink && src == training.SourceOutcomes {
		n, err := a.Builder.AutoLink(ctx, tenantID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Outcomes linked: %d\n", n)
	}

	res, err := a.Builder.Train(ctx, tenantID, src, name)
	if res != nil {
		printDataset(out, res.Dataset)
	}
	if err != nil {
		return err
	}

	m := res.Model
	fmt.Fprintf(out, "\nCandidate %s (%s)\n", m.Name, m.ID)
	fmt.Fprintf(out, "  Train F1: %.3f  Accuracy: %.3f  N: %d\n", m.Metrics.Train.F1, m.Metrics.Train.Accuracy, m.Metrics.Train.N)
	fmt.Fprintf(out, "  Val F1:   %.3f  Accuracy: %.3f  N: %d\n", m.Metrics.Val.F1, m.Metrics.Val.Accuracy, m.Metrics.Val.N)
	fmt.Fprintf(out, "Promote with: promote --tenant %s --model %s\n", tenantID, m.ID)
	return nil
}

func printDataset(w io.Writer, ds *training.Dataset) {
	fmt.Fprintf(w, "Dataset (%s): %d rows, %d positive, %d labels, %d without report\n",
		ds.Source, len(ds.Rows), ds.Positives(), ds.Available, ds.Skipped)
	for _, c := range ds.Checks {
		mark := "PASS"
		if !c.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %s: %s (need %s)\n", mark, c.Name, c.Actual, c.Threshold)
	}
}
