// Package main runs the promotion guardrail for a candidate model and
// activates it when allowed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"underwriting-lab/internal/app"
	"underwriting-lab/internal/config"
	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/governance"
	"underwriting-lab/internal/logger"
)

// errBlocked makes a blocked promotion exit non-zero.
var errBlocked = errors.New("promotion blocked")

var (
	tenantID      string
	modelID       string
	actorID       string
	actorRole     string
	justification string
	override      bool
	dryRun        bool
)

func main() {
	root := &cobra.Command{
		Use:          "promote",
		Short:        "Activate a candidate model behind the guardrails",
		Long:         "Checks linked outcomes and validation F1 against the active model, then activates the candidate and records an audit event. Admins and owners may override a blocked promotion.",
		SilenceUsage: true,
		RunE:         run,
	}
	f := root.Flags()
	f.StringVar(&tenantID, "tenant", "", "Tenant owning the model")
	f.StringVar(&modelID, "model", "", "Candidate model id")
	f.StringVar(&actorID, "actor", os.Getenv("USER"), "Acting user id")
	f.StringVar(&actorRole, "role", "member", "Acting user role (owner, admin, member)")
	f.StringVar(&justification, "justification", "", "Why this model should be promoted")
	f.BoolVar(&override, "override", false, "Promote even if guardrails block (admin/owner only)")
	f.BoolVar(&dryRun, "dry-run", false, "Print the guardrail report without activating")
	_ = root.MarkFlagRequired("tenant")
	_ = root.MarkFlagRequired("model")

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

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	assessment, err := a.Guardrail.Assess(ctx, tenantID, modelID)
	if err != nil {
		return err
	}
	fmt.Fprint(out, governance.RenderMarkdown(assessment))
	if dryRun {
		return nil
	}

	decision, blocked, err := a.Guardrail.Activate(ctx, governance.Request{
		TenantID:      tenantID,
		CandidateID:   modelID,
		Actor:         domain.Actor{ID: actorID, Role: actorRole},
		Justification: justification,
		Override:      override,
	})
	if err != nil {
		return err
	}
	if blocked != nil {
		fmt.Fprintf(out, "\nBlocked: %s\n", blocked.Reason)
		return errBlocked
	}

	fmt.Fprintf(out, "\nActivated %s", decision.CandidateID)
	if decision.PreviousActiveID != "" {
		fmt.Fprintf(out, " (archived %s)", decision.PreviousActiveID)
	}
	if decision.Override {
		fmt.Fprint(out, " by override")
	}
	fmt.Fprintf(out, "\nAudit event: %s\n", decision.AuditEventID)
	return nil
}
