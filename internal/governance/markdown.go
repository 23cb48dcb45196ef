package governance

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders an Assessment as Markdown string.
func RenderMarkdown(a *Assessment) string {
	var sb strings.Builder

	sb.WriteString("# Promotion Guardrail Report\n\n")

	status := "PROMOTABLE"
	if a.Blocked() {
		status = "BLOCKED"
	}
	sb.WriteString(fmt.Sprintf("## Status: %s\n\n", status))

	if a.Candidate != nil {
		sb.WriteString(fmt.Sprintf("- Candidate: %s (`%s`)\n", a.Candidate.Name, a.Candidate.ID))
	}
	if a.Active != nil {
		sb.WriteString(fmt.Sprintf("- Active: %s (`%s`)\n", a.Active.Name, a.Active.ID))
	} else {
		sb.WriteString("- Active: baseline\n")
	}
	sb.WriteString("\n")

	if !a.Config.Enabled {
		sb.WriteString("Guardrails are disabled; promotion only needs a justification.\n")
		return sb.String()
	}

	sb.WriteString("## Checks\n\n")
	sb.WriteString("| # | Check | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-------|-----------|--------|------|\n")
	passed := 0
	for i, c := range a.Checks {
		passStr := "PASS"
		if c.Pass {
			passed++
		} else {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Checks: %d/%d passed\n\n", passed, len(a.Checks)))

	if a.Blocked() {
		sb.WriteString("## Summary\n\n")
		sb.WriteString("Blocked by guardrails: " + a.BlockedReason + "\n")
		sb.WriteString("An owner or admin may override with a justification; the override is audited.\n")
	}

	return sb.String()
}
