package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// LinearModel divides the conversion value equally among all touchpoints.
// Repeated exposures of the same channel each receive their own share, so a
// channel appearing twice in a 3-step journey collects 2/3 of the value.
type LinearModel struct{}

// NewLinearModel creates a linear model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// ID returns the model type identifier.
func (m *LinearModel) ID() string {
	return domain.ModelTypeLinear
}

// Allocate splits each converted journey's value equally per touchpoint.
func (m *LinearModel) Allocate(_ context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		weights := make([]float64, len(j.Touchpoints))
		for k := range weights {
			weights[k] = 1
		}
		out[i] = distributeByWeights(j, weights)
	}
	return out, nil
}
