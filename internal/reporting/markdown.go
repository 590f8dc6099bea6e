package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Attribution Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Models: %d\n\n", r.RunID, r.ModelCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Included Journeys | %d |\n", r.DataSummary.IncludedJourneys))
	sb.WriteString(fmt.Sprintf("| Excluded Journeys | %d |\n", r.DataSummary.ExcludedJourneys))
	sb.WriteString(fmt.Sprintf("| Converted Journeys | %d |\n", r.DataSummary.ConvertedJourneys))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", r.DataSummary.TotalRevenue))
	sb.WriteString(fmt.Sprintf("| Total Cost | %.2f |\n", r.DataSummary.TotalCost))
	sb.WriteString(fmt.Sprintf("| Average Path Length | %.2f |\n", r.DataSummary.AveragePathLength))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "WARN"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Below minimum data.** Treat significance as unreliable.\n\n")
		}
	}

	if len(r.DataQuality.ExclusionReasons) > 0 {
		sb.WriteString("### Excluded Journeys\n\n")
		for _, reason := range r.DataQuality.ExclusionReasons {
			sb.WriteString(fmt.Sprintf("- %s\n", reason))
		}
		if len(r.DataQuality.ExcludedSamples) > 0 {
			sb.WriteString(fmt.Sprintf("\nSample journey IDs: %s\n", strings.Join(r.DataQuality.ExcludedSamples, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(r.DataQuality.FailedModels) > 0 {
		sb.WriteString("### Failed Models\n\n")
		for _, failure := range r.DataQuality.FailedModels {
			sb.WriteString(fmt.Sprintf("- %s\n", failure))
		}
		sb.WriteString("\n")
	}

	// Channel Attribution
	sb.WriteString("## Channel Attribution\n\n")
	if len(r.ModelAttribution) > 0 {
		sb.WriteString("| Model | Channel | Credit | Share | Cost | ROAS | Touchpoints |\n")
		sb.WriteString("|-------|---------|--------|-------|------|------|-------------|\n")
		for _, row := range r.ModelAttribution {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.2f | %.4f | %d |\n",
				row.ModelID, row.Channel, row.Credit, row.CreditShare, row.Cost, row.ROAS, row.Touchpoints))
		}
	} else {
		sb.WriteString("No attribution rows available.\n")
	}
	sb.WriteString("\n")

	// Model Comparison
	sb.WriteString("## Model Comparison\n\n")
	if r.Comparison != nil {
		sb.WriteString("| Model |")
		for _, ch := range r.Comparison.Channels {
			sb.WriteString(fmt.Sprintf(" %s |", ch))
		}
		sb.WriteString("\n|-------|")
		for range r.Comparison.Channels {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")
		for mi, modelID := range r.Comparison.Models {
			sb.WriteString(fmt.Sprintf("| %s |", modelID))
			for _, credit := range r.Comparison.Credits[mi] {
				sb.WriteString(fmt.Sprintf(" %.4f |", credit))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("Single model run, no comparison available.\n")
	}
	sb.WriteString("\n")

	// Baseline Deltas
	if len(r.BaselineDeltas) > 0 {
		sb.WriteString("## Last-Touch Baseline Deltas\n\n")
		sb.WriteString("| Model | Channel | Last-Touch | Model Credit | Delta | Revenue Share |\n")
		sb.WriteString("|-------|---------|------------|--------------|-------|---------------|\n")
		for _, d := range r.BaselineDeltas {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %+.4f | %.4f |\n",
				d.ModelID, d.Channel, d.BaselineCredit, d.ModelCredit, d.Delta, d.RevenueShare))
		}
		sb.WriteString("\n")
	}

	// ROI
	sb.WriteString("## ROI (Primary Model)\n\n")
	if len(r.ROI) > 0 {
		sb.WriteString("| Channel | Revenue | Cost | ROI |\n")
		sb.WriteString("|---------|---------|------|-----|\n")
		for _, row := range r.ROI {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.4f |\n",
				row.Channel, row.Revenue, row.Cost, row.ROI))
		}
	} else {
		sb.WriteString("No ROI rows available.\n")
	}
	sb.WriteString("\n")

	// Confidence
	sb.WriteString("## Confidence\n\n")
	if len(r.Confidence) > 0 {
		sb.WriteString("| Model | Significance | ROAS CI Low | ROAS CI High | Resamples | Below Min Sample | Below Min Path |\n")
		sb.WriteString("|-------|--------------|-------------|--------------|-----------|------------------|----------------|\n")
		for _, c := range r.Confidence {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %d | %t | %t |\n",
				c.ModelID, c.Significance, c.ROASLower, c.ROASUpper,
				c.Resamples, c.BelowMinSample, c.BelowMinPathLength))
		}
	} else {
		sb.WriteString("No confidence data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
