package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// PositionBasedModel applies a U-shaped split: a fixed share to the first
// touchpoint, a fixed share to the last, the remainder divided equally among
// interior touchpoints. Short journeys collapse gracefully: 2 touchpoints
// split first/last weight proportionally (50/50 at defaults), 1 touchpoint
// takes everything.
type PositionBasedModel struct {
	firstWeight  float64
	lastWeight   float64
	middleWeight float64
}

// NewPositionBasedModel creates a position-based model with the given split.
// Weights must sum to 1; the factory validates this.
func NewPositionBasedModel(firstWeight, lastWeight, middleWeight float64) *PositionBasedModel {
	return &PositionBasedModel{
		firstWeight:  firstWeight,
		lastWeight:   lastWeight,
		middleWeight: middleWeight,
	}
}

// ID returns the model type identifier.
func (m *PositionBasedModel) ID() string {
	return domain.ModelTypePositionBased
}

// Allocate distributes each converted journey's value by position.
func (m *PositionBasedModel) Allocate(_ context.Context, input *ModelInput) ([]domain.CreditVector, error) {
	if err := checkMinConverted(input); err != nil {
		return nil, err
	}

	out := make([]domain.CreditVector, len(input.Journeys))
	for i, j := range input.Journeys {
		out[i] = distributeByWeights(j, m.positionWeights(len(j.Touchpoints)))
	}
	return out, nil
}

// positionWeights returns per-touchpoint weights for a journey of length n.
// distributeByWeights normalizes, so only the relative split matters.
func (m *PositionBasedModel) positionWeights(n int) []float64 {
	weights := make([]float64, n)
	switch {
	case n == 1:
		weights[0] = 1
	case n == 2:
		weights[0] = m.firstWeight
		weights[1] = m.lastWeight
	default:
		weights[0] = m.firstWeight
		weights[n-1] = m.lastWeight
		middle := m.middleWeight / float64(n-2)
		for k := 1; k < n-1; k++ {
			weights[k] = middle
		}
	}
	return weights
}
