package aggregate

import (
	"errors"
	"sort"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// ErrVectorMismatch is returned when the credit vector count does not match
// the journey count. Models produce one vector per journey in input order.
var ErrVectorMismatch = errors.New("credit vector count does not match journey count")

// Sum merges per-journey credit vectors into a PortfolioAttribution.
// journeys and vectors must be index-aligned. excluded is the count of
// journeys dropped during validation, carried through for diagnostics.
func Sum(modelID string, journeys []*domain.Journey, vectors []domain.CreditVector, excluded int) (*domain.PortfolioAttribution, error) {
	if len(journeys) != len(vectors) {
		return nil, ErrVectorMismatch
	}

	type channelAccum struct {
		credit         float64
		cost           float64
		touchpoints    int
		convertedTouch int
	}
	accum := make(map[string]*channelAccum)
	touch := func(ch string) *channelAccum {
		a := accum[ch]
		if a == nil {
			a = &channelAccum{}
			accum[ch] = a
		}
		return a
	}

	portfolio := &domain.PortfolioAttribution{
		ModelID:          modelID,
		JourneysIncluded: len(journeys),
		JourneysExcluded: excluded,
	}

	for i, j := range journeys {
		if j.Converted {
			portfolio.TotalConversions++
			portfolio.TotalRevenue += j.ConversionValue
		}
		for _, tp := range j.Touchpoints {
			a := touch(tp.Channel)
			a.cost += tp.Cost
			a.touchpoints++
			if j.Converted {
				a.convertedTouch++
			}
			portfolio.TotalCost += tp.Cost
		}
		for ch, credit := range vectors[i] {
			touch(ch).credit += credit
		}
	}

	totalCredit := 0.0
	for _, a := range accum {
		totalCredit += a.credit
	}

	channels := make([]string, 0, len(accum))
	for ch := range accum {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	portfolio.Channels = make([]domain.ChannelMetrics, 0, len(channels))
	for _, ch := range channels {
		a := accum[ch]
		m := domain.ChannelMetrics{
			Channel:        ch,
			Credit:         a.credit,
			Cost:           a.cost,
			Touchpoints:    a.touchpoints,
			ConvertedTouch: a.convertedTouch,
		}
		if a.cost > 0 {
			m.ROAS = a.credit / a.cost
		}
		if totalCredit > 0 {
			m.CreditShare = a.credit / totalCredit
		}
		portfolio.Channels = append(portfolio.Channels, m)
	}

	return portfolio, nil
}

// AveragePathLength returns the mean touchpoint count across all journeys,
// converted and non-converted alike.
func AveragePathLength(journeys []*domain.Journey) float64 {
	if len(journeys) == 0 {
		return 0
	}
	total := 0
	for _, j := range journeys {
		total += len(j.Touchpoints)
	}
	return float64(total) / float64(len(journeys))
}

// ConvertedCount returns the number of converted journeys.
func ConvertedCount(journeys []*domain.Journey) int {
	count := 0
	for _, j := range journeys {
		if j.Converted {
			count++
		}
	}
	return count
}
