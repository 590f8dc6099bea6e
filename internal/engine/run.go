package engine

import (
	"sort"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// ToRun converts a result into its persisted form. Seed and creation time
// are not part of the result and must be supplied by the caller.
func (r *Result) ToRun(seed, createdAtMs int64) *domain.AttributionRun {
	modelIDs := make([]string, 0, len(r.Models))
	for id := range r.Models {
		modelIDs = append(modelIDs, id)
	}
	sort.Strings(modelIDs)

	run := &domain.AttributionRun{
		RunID:            r.RunID,
		CreatedAtMs:      createdAtMs,
		Seed:             seed,
		ModelIDs:         modelIDs,
		JourneysIncluded: r.Portfolio.JourneysIncluded,
		JourneysExcluded: r.Portfolio.JourneysExcluded,
		TotalConversions: r.Portfolio.TotalConversions,
		TotalRevenue:     r.Portfolio.TotalRevenue,
		TotalCost:        r.Portfolio.TotalCost,
	}

	for _, id := range modelIDs {
		for _, cm := range r.Models[id].Portfolio.Channels {
			run.Credits = append(run.Credits, domain.ChannelCredit{
				RunID:       r.RunID,
				ModelID:     id,
				Channel:     cm.Channel,
				Credit:      cm.Credit,
				Cost:        cm.Cost,
				ROAS:        cm.ROAS,
				CreditShare: cm.CreditShare,
				Touchpoints: cm.Touchpoints,
			})
		}
	}

	return run
}
