package scheduler

import (
	"context"
	"fmt"
	"strings"

	"underwriting-lab/internal/orchestrator"
)

// RetrainJob retrains candidates for the configured tenants.
type RetrainJob struct {
	orch *orchestrator.Orchestrator
}

// NewRetrainJob wraps an orchestrator as a scheduled job.
func NewRetrainJob(orch *orchestrator.Orchestrator) *RetrainJob {
	return &RetrainJob{orch: orch}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "retrain"
}

// Run executes one retrain pass. Tenant-level failures are reported as one error.
func (j *RetrainJob) Run(ctx context.Context) error {
	result, err := j.orch.Run(ctx)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("retrain finished with %d errors: %s", len(result.Errors), strings.Join(result.Errors, "; "))
	}
	return nil
}
