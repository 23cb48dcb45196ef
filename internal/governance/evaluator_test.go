package governance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_AllPass(t *testing.T) {
	checks := Evaluate(DefaultConfig(), CheckInput{LinkedOutcomes: 60, CandidateValF1: 0.71, ActiveValF1: 0.70})

	require.Len(t, checks, 2)
	for _, c := range checks {
		assert.True(t, c.Pass, c.Name)
	}
	assert.Empty(t, BlockedReason(checks))
}

func TestEvaluate_MarginIsInclusive(t *testing.T) {
	cfg := Config{Enabled: true, MinLinkedOutcomes: 0, MinF1Margin: 0.25}
	checks := Evaluate(cfg, CheckInput{CandidateValF1: 0.75, ActiveValF1: 0.5})

	assert.True(t, checks[1].Pass)
}

func TestEvaluate_FirstFailingCheckIsReason(t *testing.T) {
	checks := Evaluate(DefaultConfig(), CheckInput{LinkedOutcomes: 3, CandidateValF1: 0.1, ActiveValF1: 0.9})

	assert.False(t, checks[0].Pass)
	assert.False(t, checks[1].Pass)
	assert.Equal(t, "Need at least 50 linked outcomes (have 3).", BlockedReason(checks))
}

func TestEvaluate_F1Failure(t *testing.T) {
	checks := Evaluate(DefaultConfig(), CheckInput{LinkedOutcomes: 50, CandidateValF1: 0.70, ActiveValF1: 0.70})

	assert.True(t, checks[0].Pass)
	assert.False(t, checks[1].Pass)
	assert.True(t, strings.HasPrefix(BlockedReason(checks), "Candidate val F1 (0.70) must exceed active (0.70)"))
}

func TestEvaluate_Disabled(t *testing.T) {
	checks := Evaluate(Config{Enabled: false}, CheckInput{})

	assert.Empty(t, checks)
	assert.Empty(t, BlockedReason(checks))
}

func TestRenderMarkdown(t *testing.T) {
	cfg := DefaultConfig()
	checks := Evaluate(cfg, CheckInput{LinkedOutcomes: 10, CandidateValF1: 0.8})
	a := &Assessment{Config: cfg, Checks: checks, BlockedReason: BlockedReason(checks)}

	md := RenderMarkdown(a)

	assert.Contains(t, md, "## Status: BLOCKED")
	assert.Contains(t, md, "- Active: baseline")
	assert.Contains(t, md, "| 1 | Linked outcomes | >= 50 | 10 | FAIL |")
	assert.Contains(t, md, "Checks: 1/2 passed")
	assert.Contains(t, md, "Blocked by guardrails: Need at least 50 linked outcomes (have 10).")
}

func TestRenderMarkdown_Disabled(t *testing.T) {
	md := RenderMarkdown(&Assessment{Config: Config{Enabled: false}})

	assert.Contains(t, md, "## Status: PROMOTABLE")
	assert.Contains(t, md, "Guardrails are disabled")
	assert.NotContains(t, md, "## Checks")
}
