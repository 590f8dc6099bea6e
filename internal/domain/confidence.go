package domain

// ChannelConfidence holds bootstrap-derived stability measures for one
// channel under one model.
type ChannelConfidence struct {
	Channel      string
	CreditMean   float64 // mean credit across resamples
	CreditStddev float64 // sample stddev across resamples
	CV           float64 // CreditStddev / CreditMean; 0 when mean is 0
}

// ConfidenceReport summarizes bootstrap stability for one model run.
type ConfidenceReport struct {
	ModelID      string
	Resamples    int
	Seed         int64
	Channels     []ChannelConfidence // sorted by Channel ASC
	Significance float64             // 1 - mean CV, clamped to [0, 1]

	// Portfolio ROAS confidence interval (percentiles of resampled ROAS).
	ROASLower float64 // 2.5th percentile
	ROASUpper float64 // 97.5th percentile

	// Data sufficiency warnings. The engine never refuses to run on thin
	// data; it flags the result instead. The thresholds carried here are
	// the effective values the run was configured with.
	BelowMinSample     bool
	BelowMinPathLength bool
	MinSampleSize      int
	MinAvgPathLength   float64
	ConvertedJourneys  int
	AveragePathLength  float64
}
