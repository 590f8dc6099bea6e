package reporting

import "time"

// Report represents the attribution report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	ModelCount  int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (exclusions, sufficiency checks, failed models)
	DataQuality DataQualitySection

	// Channel attribution per model (sorted by model_id, channel)
	ModelAttribution []ModelAttributionRow

	// Model comparison matrix (present when multiple models ran)
	Comparison *ComparisonSection

	// Last-touch baseline deltas (present when last-touch ran)
	BaselineDeltas []BaselineDeltaRow

	// ROI for the primary model
	ROI []ROIRow

	// Confidence per model (sorted by model_id)
	Confidence []ConfidenceRow
}

// DataSummary contains journey set description.
type DataSummary struct {
	IncludedJourneys  int
	ExcludedJourneys  int
	ConvertedJourneys int
	TotalRevenue      float64
	TotalCost         float64
	AveragePathLength float64
}

// DataQualitySection contains exclusion counts and sufficiency checks.
type DataQualitySection struct {
	ExclusionReasons  []string // "REASON: count", sorted by reason
	ExcludedSamples   []string // sample offending journey IDs
	SufficiencyChecks []SufficiencyCheckRow
	AllChecksPassed   bool
	FailedModels      []string // "MODEL_ID: error", sorted by model
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ModelAttributionRow is one channel's credit under one model.
type ModelAttributionRow struct {
	ModelID     string
	Channel     string
	Credit      float64
	CreditShare float64
	Cost        float64
	ROAS        float64
	Touchpoints int
}

// ComparisonSection is the model x channel credit matrix.
type ComparisonSection struct {
	Models   []string
	Channels []string
	Credits  [][]float64 // [model][channel]
}

// BaselineDeltaRow compares one model's channel credit to last-touch.
type BaselineDeltaRow struct {
	ModelID        string
	Channel        string
	BaselineCredit float64
	ModelCredit    float64
	Delta          float64
	RevenueShare   float64
}

// ROIRow is the spend efficiency of one channel under the primary model.
type ROIRow struct {
	Channel string
	Revenue float64
	Cost    float64
	ROI     float64
}

// ConfidenceRow summarizes bootstrap confidence for one model.
type ConfidenceRow struct {
	ModelID            string
	Significance       float64
	ROASLower          float64
	ROASUpper          float64
	Resamples          int
	BelowMinSample     bool
	BelowMinPathLength bool
}
