package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/underwriting"
)

// RenderDealMarkdown renders one underwriting report as Markdown string.
func RenderDealMarkdown(r *domain.Report) string {
	var sb strings.Builder
	out := r.Outputs

	// Header
	sb.WriteString(fmt.Sprintf("# Underwriting Report: %s\n\n", r.Address))
	if r.ID != "" {
		sb.WriteString(fmt.Sprintf("Report: `%s`\n", r.ID))
	}
	if r.CreatedAt > 0 {
		sb.WriteString(fmt.Sprintf("Generated: %s\n", time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339)))
	}
	if r.Inputs.ListingURL != "" {
		sb.WriteString(fmt.Sprintf("Listing: %s\n", r.Inputs.ListingURL))
	}
	sb.WriteString("\n")

	// Verdict
	sb.WriteString("## Verdict\n\n")
	sb.WriteString("| Score | Grade | Verdict | Confidence |\n")
	sb.WriteString("|-------|-------|---------|------------|\n")
	sb.WriteString(fmt.Sprintf("| %.1f/100 | %s | %s | %.0f%% |\n\n",
		out.Score, out.GradeDetail, out.Verdict, out.Confidence*100))

	if out.ScoreAI != nil && out.AIWeight > 0 {
		sb.WriteString(fmt.Sprintf("Base score %.1f, AI score %.1f blended at %.0f%% weight.\n\n",
			out.ScoreBase, *out.ScoreAI, out.AIWeight*100))
	} else {
		sb.WriteString(fmt.Sprintf("Base score %.1f; not enough data to blend the AI score.\n\n", out.ScoreBase))
	}

	// Key Metrics
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, row := range DealMetricRows(out.Metrics) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", row.Label, row.Value))
	}
	sb.WriteString("\n")

	// Rationale
	sb.WriteString("## Rationale\n\n")
	for _, line := range out.Rationale {
		sb.WriteString(fmt.Sprintf("- %s\n", line))
	}
	sb.WriteString("\n")

	// Flags
	if len(out.Flags) > 0 {
		sb.WriteString("## Flags\n\n")
		for _, f := range out.Flags {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n")
	}

	// AI Drivers
	if out.AIMeta != nil && len(out.AIMeta.TopDrivers) > 0 {
		sb.WriteString(fmt.Sprintf("## AI Drivers (%s)\n\n", out.AIMeta.ModelName))
		sb.WriteString("| Driver | Value | Weight | Contribution |\n")
		sb.WriteString("|--------|-------|--------|--------------|\n")
		for _, c := range out.AIMeta.TopDrivers {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %+.4f |\n",
				underwriting.DriverLabel(c.Feature), c.Value, c.Weight, c.Contribution))
		}
		sb.WriteString("\n")
	}

	// Cashflow Projection
	sb.WriteString("## Cashflow Projection\n\n")
	if len(out.Metrics.Cashflows) > 0 {
		sb.WriteString("| Year | Cashflow |\n")
		sb.WriteString("|------|----------|\n")
		for year, cf := range out.Metrics.Cashflows {
			v := cf
			sb.WriteString(fmt.Sprintf("| %d | %s |\n", year, money(&v)))
		}
	} else {
		sb.WriteString("No projection available (price missing).\n")
	}
	sb.WriteString("\n")

	// Provenance
	if len(out.Provenance) > 0 {
		sb.WriteString("## Data Provenance\n\n")
		sb.WriteString("| Field | Source | Confidence |\n")
		sb.WriteString("|-------|--------|------------|\n")
		for _, p := range out.Provenance {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f |\n", p.Field, p.Source, p.Confidence))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderTenantMarkdown renders a tenant report as Markdown string.
func RenderTenantMarkdown(r *TenantReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Underwriting Activity: %s\n\n", r.TenantID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s to %s | Active model: %s\n\n",
		time.UnixMilli(r.WindowStart).UTC().Format(time.DateOnly),
		time.UnixMilli(r.WindowEnd).UTC().Format(time.DateOnly),
		r.ActiveModel))

	// Score Distribution
	sb.WriteString("## Score Distribution\n\n")
	if r.Summary == nil {
		sb.WriteString("No underwriting runs in this window.\n")
		return sb.String()
	}
	s := r.Summary
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Runs | %d |\n", s.Runs))
	sb.WriteString(fmt.Sprintf("| Mean | %.2f |\n", s.ScoreMean))
	sb.WriteString(fmt.Sprintf("| Median | %.2f |\n", s.ScoreMed))
	sb.WriteString(fmt.Sprintf("| P10 | %.2f |\n", s.ScoreP10))
	sb.WriteString(fmt.Sprintf("| P90 | %.2f |\n", s.ScoreP90))
	sb.WriteString(fmt.Sprintf("| Min / Max | %.2f / %.2f |\n", s.ScoreMin, s.ScoreMax))
	sb.WriteString(fmt.Sprintf("| Std dev | %.2f |\n", s.ScoreStd))
	sb.WriteString(fmt.Sprintf("| AI blended | %.1f%% |\n", s.BlendedPct*100))
	sb.WriteString("\n")

	// Grades
	sb.WriteString("## Grades\n\n")
	grades := make([]string, 0, len(s.GradeCount))
	for g := range s.GradeCount {
		grades = append(grades, g)
	}
	sort.Strings(grades)
	sb.WriteString("| Grade | Runs |\n")
	sb.WriteString("|-------|------|\n")
	for _, g := range grades {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", g, s.GradeCount[g]))
	}
	sb.WriteString("\n")

	// Runs
	sb.WriteString("## Runs\n\n")
	sb.WriteString("| Created | Address | Score | Grade | Verdict |\n")
	sb.WriteString("|---------|---------|-------|-------|---------|\n")
	for _, run := range r.Runs {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %s | %s |\n",
			time.UnixMilli(run.CreatedAt).UTC().Format("2006-01-02 15:04"),
			run.Address, run.Score, run.GradeDetail, run.Verdict))
	}
	sb.WriteString("\n")

	return sb.String()
}
