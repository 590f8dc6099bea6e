package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// FirstTouchModel assigns the full conversion value to the first
// touchpoint's channel. Touchpoints sharing the first timestamp tie-break
// by input index, which the chronological ordering already encodes.
type FirstTouchModel struct{}

// NewFirstTouchModel creates a first-touch model.
func NewFirstTouchModel() *FirstTouchModel {
	return &FirstTouchModel{}
}

// ID returns the model type identifier.
func (m *FirstTouchModel) ID() string {
	return domain.ModelTypeFirstTouch
}

// Allocate gives all credit to the first touchpoint of each converted journey.
func (m *FirstTouchModel) Allocate(_ context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		cv := make(domain.CreditVector)
		if j.Converted && j.ConversionValue > 0 {
			cv[j.Touchpoints[0].Channel] = j.ConversionValue
		}
		out[i] = cv
	}
	return out, nil
}
