package attribution

import (
	"errors"
	"fmt"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// Allocation errors.
var (
	// ErrInsufficientData is returned when fewer converted journeys are
	// supplied than the configured minimum.
	ErrInsufficientData = errors.New("insufficient converted journeys")

	// ErrMalformedJourney is returned when a journey violates the input
	// invariants. Callers exclude the journey and record the reason.
	ErrMalformedJourney = errors.New("malformed journey")
)

// Exclusion reason codes, used for per-reason counting in diagnostics.
const (
	ReasonNoTouchpoints       = "NO_TOUCHPOINTS"
	ReasonUnorderedTimestamps = "UNORDERED_TIMESTAMPS"
	ReasonEmptyChannel        = "EMPTY_CHANNEL"
	ReasonNegativeCost        = "NEGATIVE_COST"
	ReasonNegativeValue       = "NEGATIVE_CONVERSION_VALUE"
	ReasonValueWithoutConv    = "VALUE_WITHOUT_CONVERSION"
	ReasonConversionBeforeEnd = "CONVERSION_BEFORE_LAST_TOUCH"
)

// ValidateJourney checks journey input invariants. Returns an error wrapping
// ErrMalformedJourney with a reason code, or nil for a valid journey.
func ValidateJourney(j *domain.Journey) error {
	if len(j.Touchpoints) == 0 {
		return malformed(j, ReasonNoTouchpoints)
	}
	prev := j.Touchpoints[0].TimestampMs
	for _, tp := range j.Touchpoints {
		if tp.Channel == "" {
			return malformed(j, ReasonEmptyChannel)
		}
		if tp.Cost < 0 {
			return malformed(j, ReasonNegativeCost)
		}
		if tp.TimestampMs < prev {
			return malformed(j, ReasonUnorderedTimestamps)
		}
		prev = tp.TimestampMs
	}
	if j.ConversionValue < 0 {
		return malformed(j, ReasonNegativeValue)
	}
	if !j.Converted && j.ConversionValue != 0 {
		return malformed(j, ReasonValueWithoutConv)
	}
	if j.Converted && j.ConversionTime < prev {
		return malformed(j, ReasonConversionBeforeEnd)
	}
	return nil
}

// ExclusionReason extracts the reason code from a ValidateJourney error.
// Returns "" when err does not wrap ErrMalformedJourney.
func ExclusionReason(err error) string {
	var me *malformedError
	if errors.As(err, &me) {
		return me.reason
	}
	return ""
}

type malformedError struct {
	journeyID string
	reason    string
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("%v: journey %s: %s", ErrMalformedJourney, e.journeyID, e.reason)
}

func (e *malformedError) Unwrap() error {
	return ErrMalformedJourney
}

func malformed(j *domain.Journey, reason string) error {
	return &malformedError{journeyID: j.JourneyID, reason: reason}
}
