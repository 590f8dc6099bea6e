package attribution

import (
	"context"
	"math"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

const msPerDay = 86400000.0

// TimeDecayModel weights each touchpoint by 2^(-age_in_days / half_life),
// where age is measured from the touchpoint to the conversion. Touchpoints
// closer to conversion receive strictly more weight.
type TimeDecayModel struct {
	halfLifeDays float64
}

// NewTimeDecayModel creates a time-decay model with the given half-life.
func NewTimeDecayModel(halfLifeDays float64) *TimeDecayModel {
	return &TimeDecayModel{halfLifeDays: halfLifeDays}
}

// ID returns the model type identifier.
func (m *TimeDecayModel) ID() string {
	return domain.ModelTypeTimeDecay
}

// Allocate distributes each converted journey's value by exponential decay.
func (m *TimeDecayModel) Allocate(_ context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		weights := make([]float64, len(j.Touchpoints))
		for k, tp := range j.Touchpoints {
			ageDays := float64(j.ConversionTime-tp.TimestampMs) / msPerDay
			weights[k] = math.Exp2(-ageDays / m.halfLifeDays)
		}
		out[i] = distributeByWeights(j, weights)
	}
	return out, nil
}
