package attribution

import (
	"errors"
	"math"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// Factory errors
var (
	ErrUnknownModelType     = errors.New("unknown model type")
	ErrInvalidHalfLife      = errors.New("TIME_DECAY requires HalfLifeDays > 0")
	ErrInvalidPositionSplit = errors.New("POSITION_BASED weights must be non-negative and sum to 1")
	ErrInvalidChannelLimit  = errors.New("SHAPLEY_VALUE requires ExactChannelLimit in [1, 20]")
	ErrInvalidSampleCount   = errors.New("SHAPLEY_VALUE requires SampleCount > 0")
)

// Parameter defaults applied when the corresponding config field is nil.
const (
	DefaultHalfLifeDays      = 7.0
	DefaultFirstWeight       = 0.40
	DefaultLastWeight        = 0.40
	DefaultMiddleWeight      = 0.20
	DefaultExactChannelLimit = 8
	DefaultSampleCount       = 1000
	DefaultSeed              = 1
)

// positionSplitTolerance allows for float error when checking the weights.
const positionSplitTolerance = 1e-9

// FromConfig creates a Model from domain.ModelConfig.
// Validates required parameters per model type and applies documented
// defaults for parameters left nil.
func FromConfig(cfg domain.ModelConfig) (Model, error) {
	switch cfg.ModelType {
	case domain.ModelTypeFirstTouch:
		return NewFirstTouchModel(), nil
	case domain.ModelTypeLastTouch:
		return NewLastTouchModel(), nil
	case domain.ModelTypeLinear:
		return NewLinearModel(), nil
	case domain.ModelTypeTimeDecay:
		return fromTimeDecayConfig(cfg)
	case domain.ModelTypePositionBased:
		return fromPositionBasedConfig(cfg)
	case domain.ModelTypeMarkov:
		return NewMarkovModel(), nil
	case domain.ModelTypeShapley:
		return fromShapleyConfig(cfg)
	default:
		return nil, ErrUnknownModelType
	}
}

func fromTimeDecayConfig(cfg domain.ModelConfig) (*TimeDecayModel, error) {
	halfLife := DefaultHalfLifeDays
	if cfg.HalfLifeDays != nil {
		halfLife = *cfg.HalfLifeDays
	}
	if halfLife <= 0 {
		return nil, ErrInvalidHalfLife
	}
	return NewTimeDecayModel(halfLife), nil
}

func fromPositionBasedConfig(cfg domain.ModelConfig) (*PositionBasedModel, error) {
	first, last, middle := DefaultFirstWeight, DefaultLastWeight, DefaultMiddleWeight
	if cfg.FirstWeight != nil {
		first = *cfg.FirstWeight
	}
	if cfg.LastWeight != nil {
		last = *cfg.LastWeight
	}
	if cfg.MiddleWeight != nil {
		middle = *cfg.MiddleWeight
	}
	if first < 0 || last < 0 || middle < 0 {
		return nil, ErrInvalidPositionSplit
	}
	if math.Abs(first+last+middle-1) > positionSplitTolerance {
		return nil, ErrInvalidPositionSplit
	}
	return NewPositionBasedModel(first, last, middle), nil
}

func fromShapleyConfig(cfg domain.ModelConfig) (*ShapleyModel, error) {
	limit := DefaultExactChannelLimit
	if cfg.ExactChannelLimit != nil {
		limit = *cfg.ExactChannelLimit
	}
	if limit < 1 || limit > 20 {
		return nil, ErrInvalidChannelLimit
	}

	samples := DefaultSampleCount
	if cfg.SampleCount != nil {
		samples = *cfg.SampleCount
	}
	if samples <= 0 {
		return nil, ErrInvalidSampleCount
	}

	seed := int64(DefaultSeed)
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	return NewShapleyModel(limit, samples, seed), nil
}
