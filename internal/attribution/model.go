package attribution

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// Model assigns conversion credit to channels for a set of journeys.
type Model interface {
	// Allocate computes one CreditVector per input journey, in input order.
	// Converted journeys receive credits summing to their conversion value;
	// non-converted journeys receive an empty vector.
	Allocate(ctx context.Context, input *ModelInput) ([]domain.CreditVector, error)

	// ID returns the model type identifier.
	ID() string
}

// ModelInput holds all data needed for credit allocation.
// Journeys must be pre-validated (see ValidateJourney) and are never mutated.
type ModelInput struct {
	Journeys []*domain.Journey

	// MinConvertedJourneys is the minimum number of converted journeys a
	// model requires. Allocate returns ErrInsufficientData below it.
	MinConvertedJourneys int
}

// ConvertedCount returns the number of converted journeys in the input.
func (in *ModelInput) ConvertedCount() int {
	count := 0
	for _, j := range in.Journeys {
		if j.Converted {
			count++
		}
	}
	return count
}
