package domain

// Model type identifiers.
const (
	ModelTypeFirstTouch    = "FIRST_TOUCH"
	ModelTypeLastTouch     = "LAST_TOUCH"
	ModelTypeLinear        = "LINEAR"
	ModelTypeTimeDecay     = "TIME_DECAY"
	ModelTypePositionBased = "POSITION_BASED"
	ModelTypeMarkov        = "MARKOV_CHAIN"
	ModelTypeShapley       = "SHAPLEY_VALUE"
)

// AllModelTypes lists every supported model type in canonical order.
func AllModelTypes() []string {
	return []string{
		ModelTypeFirstTouch,
		ModelTypeLastTouch,
		ModelTypeLinear,
		ModelTypeTimeDecay,
		ModelTypePositionBased,
		ModelTypeMarkov,
		ModelTypeShapley,
	}
}

// ModelConfig selects a model type and carries its parameters.
// Pointer fields are optional; required fields per type are validated
// by the attribution factory.
type ModelConfig struct {
	ModelType string

	// TIME_DECAY
	HalfLifeDays *float64 // decay half-life in days

	// POSITION_BASED
	FirstWeight  *float64 // credit share for the first touchpoint
	LastWeight   *float64 // credit share for the last touchpoint
	MiddleWeight *float64 // credit share split across middle touchpoints

	// SHAPLEY_VALUE
	ExactChannelLimit *int   // exact enumeration up to this many channels
	SampleCount       *int   // Monte Carlo permutations above the limit
	Seed              *int64 // sampling seed
}
