package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// LastTouchModel assigns the full conversion value to the last touchpoint's
// channel. This is the conventional platform-reported baseline used for
// reconciliation deltas.
type LastTouchModel struct{}

// NewLastTouchModel creates a last-touch model.
func NewLastTouchModel() *LastTouchModel {
	return &LastTouchModel{}
}

// ID returns the model type identifier.
func (m *LastTouchModel) ID() string {
	return domain.ModelTypeLastTouch
}

// Allocate gives all credit to the last touchpoint of each converted journey.
func (m *LastTouchModel) Allocate(_ context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		cv := make(domain.CreditVector)
		if j.Converted && j.ConversionValue > 0 {
			cv[j.Touchpoints[len(j.Touchpoints)-1].Channel] = j.ConversionValue
		}
		out[i] = cv
	}
	return out, nil
}
