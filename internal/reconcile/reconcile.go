// Package reconcile cross-checks attribution results against ground truth.
// It verifies that attributed credit conserves total conversion value and
// produces model-comparison diagnostics.
package reconcile

import (
	"errors"
	"fmt"
	"math"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// ConservationTolerance is the relative tolerance for credit conservation.
// A larger residual signals a model implementation bug, not a data issue.
const ConservationTolerance = 1e-6

// ErrCreditConservation is returned when attributed credit does not match
// total conversion value within tolerance.
var ErrCreditConservation = errors.New("credit conservation violated")

// ConservationResult records the outcome of one conservation check.
type ConservationResult struct {
	ModelID          string
	TotalCredit      float64
	TotalRevenue     float64
	ResidualRelative float64 // |credit - revenue| / revenue; absolute when revenue is 0
	Pass             bool
}

// VerifyConservation checks that the portfolio's attributed credit equals
// its total conversion value within the relative tolerance.
// Returns an error wrapping ErrCreditConservation on violation; the result
// is returned in both cases for diagnostics.
func VerifyConservation(p *domain.PortfolioAttribution) (*ConservationResult, error) {
	totalCredit := 0.0
	for _, cm := range p.Channels {
		totalCredit += cm.Credit
	}

	residual := math.Abs(totalCredit - p.TotalRevenue)
	if p.TotalRevenue > 0 {
		residual /= p.TotalRevenue
	}

	result := &ConservationResult{
		ModelID:          p.ModelID,
		TotalCredit:      totalCredit,
		TotalRevenue:     p.TotalRevenue,
		ResidualRelative: residual,
		Pass:             residual <= ConservationTolerance,
	}
	if !result.Pass {
		return result, fmt.Errorf("%w: model %s residual %.9f (credit %.6f vs revenue %.6f)",
			ErrCreditConservation, p.ModelID, residual, totalCredit, p.TotalRevenue)
	}
	return result, nil
}

// PerJourneyConservation checks each converted journey's credit vector
// against its conversion value. Returns the index and an error for the
// first violating journey, or (-1, nil) when all pass.
func PerJourneyConservation(modelID string, journeys []*domain.Journey, vectors []domain.CreditVector) (int, error) {
	for i, j := range journeys {
		want := 0.0
		if j.Converted {
			want = j.ConversionValue
		}
		got := vectors[i].Total()

		residual := math.Abs(got - want)
		if want > 0 {
			residual /= want
		}
		if residual > ConservationTolerance {
			return i, fmt.Errorf("%w: model %s journey %s residual %.9f",
				ErrCreditConservation, modelID, j.JourneyID, residual)
		}
	}
	return -1, nil
}
