package attribution

import (
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// checkMinConverted returns ErrInsufficientData when the input carries
// fewer converted journeys than the configured minimum.
func checkMinConverted(in *ModelInput) error {
	if in.ConvertedCount() < in.MinConvertedJourneys {
		return ErrInsufficientData
	}
	return nil
}

// distributeByWeights builds a CreditVector for a converted journey from
// per-touchpoint weights. Weights are normalized so channel credits sum to
// the journey's conversion value. A zero weight sum falls back to an equal
// split across touchpoints.
func distributeByWeights(j *domain.Journey, weights []float64) domain.CreditVector {
	cv := make(domain.CreditVector)
	if !j.Converted || j.ConversionValue == 0 {
		return cv
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		equal := j.ConversionValue / float64(len(j.Touchpoints))
		for _, tp := range j.Touchpoints {
			cv[tp.Channel] += equal
		}
		return cv
	}

	for i, tp := range j.Touchpoints {
		cv[tp.Channel] += j.ConversionValue * weights[i] / total
	}
	return cv
}

// distributeByChannelShares builds a CreditVector for a converted journey
// from per-channel shares (e.g. removal effects or Shapley values scoped to
// the journey's distinct channels). A zero share sum falls back to an equal
// split across the journey's distinct channels.
func distributeByChannelShares(j *domain.Journey, shares map[string]float64) domain.CreditVector {
	cv := make(domain.CreditVector)
	if !j.Converted || j.ConversionValue == 0 {
		return cv
	}

	channels := j.Channels()
	total := 0.0
	for _, ch := range channels {
		total += shares[ch]
	}
	if total == 0 {
		equal := j.ConversionValue / float64(len(channels))
		for _, ch := range channels {
			cv[ch] = equal
		}
		return cv
	}

	for _, ch := range channels {
		cv[ch] = j.ConversionValue * shares[ch] / total
	}
	return cv
}
