package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/engine"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/roi"
)

// Generator produces reports from attribution run results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a complete report from an attribution run result.
func (g *Generator) Generate(result *engine.Result) *Report {
	report := &Report{
		GeneratedAt: g.now(),
		RunID:       result.RunID,
		ModelCount:  len(result.Models),
		DataSummary: DataSummary{
			IncludedJourneys:  result.Portfolio.JourneysIncluded,
			ExcludedJourneys:  result.Portfolio.JourneysExcluded,
			ConvertedJourneys: result.Confidence.ConvertedJourneys,
			TotalRevenue:      result.Portfolio.TotalRevenue,
			TotalCost:         result.Portfolio.TotalCost,
			AveragePathLength: result.Confidence.AveragePathLength,
		},
	}

	report.DataQuality = g.generateDataQuality(result)
	report.ModelAttribution = g.generateModelAttribution(result)
	report.Comparison = g.generateComparison(result)
	report.BaselineDeltas = g.generateBaselineDeltas(result)
	report.ROI = g.generateROI(result)
	report.Confidence = g.generateConfidence(result)

	return report
}

// generateDataQuality builds exclusion and sufficiency rows.
func (g *Generator) generateDataQuality(result *engine.Result) DataQualitySection {
	section := DataQualitySection{
		ExcludedSamples: result.Diagnostics.ExcludedSamples,
	}

	reasons := make([]string, 0, len(result.Diagnostics.ExclusionReasons))
	for reason := range result.Diagnostics.ExclusionReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		section.ExclusionReasons = append(section.ExclusionReasons,
			fmt.Sprintf("%s: %d", reason, result.Diagnostics.ExclusionReasons[reason]))
	}

	failed := make([]string, 0, len(result.Diagnostics.FailedModels))
	for modelID := range result.Diagnostics.FailedModels {
		failed = append(failed, modelID)
	}
	sort.Strings(failed)
	for _, modelID := range failed {
		section.FailedModels = append(section.FailedModels,
			fmt.Sprintf("%s: %s", modelID, result.Diagnostics.FailedModels[modelID]))
	}

	// Thresholds come from the run's effective config, not the defaults.
	conf := result.Confidence
	section.SufficiencyChecks = []SufficiencyCheckRow{
		{
			Name:      "converted_journeys",
			Threshold: fmt.Sprintf(">= %d", conf.MinSampleSize),
			Actual:    fmt.Sprintf("%d", conf.ConvertedJourneys),
			Pass:      !conf.BelowMinSample,
		},
		{
			Name:      "average_path_length",
			Threshold: fmt.Sprintf(">= %.1f", conf.MinAvgPathLength),
			Actual:    fmt.Sprintf("%.2f", conf.AveragePathLength),
			Pass:      !conf.BelowMinPathLength,
		},
	}

	section.AllChecksPassed = len(section.FailedModels) == 0
	for _, check := range section.SufficiencyChecks {
		if !check.Pass {
			section.AllChecksPassed = false
		}
	}
	return section
}

// generateModelAttribution flattens per-model channel metrics into sorted rows.
func (g *Generator) generateModelAttribution(result *engine.Result) []ModelAttributionRow {
	var rows []ModelAttributionRow
	for modelID, mr := range result.Models {
		for _, cm := range mr.Portfolio.Channels {
			rows = append(rows, ModelAttributionRow{
				ModelID:     modelID,
				Channel:     cm.Channel,
				Credit:      cm.Credit,
				CreditShare: cm.CreditShare,
				Cost:        cm.Cost,
				ROAS:        cm.ROAS,
				Touchpoints: cm.Touchpoints,
			})
		}
	}

	// Sort by (model_id, channel)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ModelID != rows[j].ModelID {
			return rows[i].ModelID < rows[j].ModelID
		}
		return rows[i].Channel < rows[j].Channel
	})
	return rows
}

func (g *Generator) generateComparison(result *engine.Result) *ComparisonSection {
	matrix := result.Diagnostics.Comparison
	if matrix == nil {
		return nil
	}
	return &ComparisonSection{
		Models:   matrix.Models,
		Channels: matrix.Channels,
		Credits:  matrix.Credits,
	}
}

func (g *Generator) generateBaselineDeltas(result *engine.Result) []BaselineDeltaRow {
	var rows []BaselineDeltaRow
	for _, cmp := range result.Diagnostics.BaselineDeltas {
		for _, d := range cmp.Deltas {
			rows = append(rows, BaselineDeltaRow{
				ModelID:        cmp.ModelID,
				Channel:        d.Channel,
				BaselineCredit: d.BaselineCredit,
				ModelCredit:    d.ModelCredit,
				Delta:          d.Delta,
				RevenueShare:   d.RevenueShare,
			})
		}
	}
	return rows
}

func (g *Generator) generateROI(result *engine.Result) []ROIRow {
	var rows []ROIRow
	for _, r := range roi.ByChannel(result.Portfolio) {
		rows = append(rows, ROIRow{
			Channel: r.Channel,
			Revenue: r.Revenue,
			Cost:    r.Cost,
			ROI:     r.ROI,
		})
	}
	return rows
}

func (g *Generator) generateConfidence(result *engine.Result) []ConfidenceRow {
	modelIDs := make([]string, 0, len(result.Models))
	for id := range result.Models {
		modelIDs = append(modelIDs, id)
	}
	sort.Strings(modelIDs)

	rows := make([]ConfidenceRow, 0, len(modelIDs))
	for _, id := range modelIDs {
		conf := result.Models[id].Confidence
		rows = append(rows, ConfidenceRow{
			ModelID:            id,
			Significance:       conf.Significance,
			ROASLower:          conf.ROASLower,
			ROASUpper:          conf.ROASUpper,
			Resamples:          conf.Resamples,
			BelowMinSample:     conf.BelowMinSample,
			BelowMinPathLength: conf.BelowMinPathLength,
		})
	}
	return rows
}
