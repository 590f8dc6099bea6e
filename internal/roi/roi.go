// Package roi derives spend-efficiency metrics and budget recommendations
// from attribution results.
package roi

import (
	"errors"
	"sort"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// MinAllocationShare is the floor share of total budget kept for channels
// without positive efficiency data, so no channel is zeroed out on a single
// analysis window.
const MinAllocationShare = 0.02

// ErrNoJourneys is returned when a lift calculation receives an empty group.
var ErrNoJourneys = errors.New("no journeys in group")

// ChannelROI is the return on investment for one channel.
type ChannelROI struct {
	Channel string
	Revenue float64 // attributed conversion value
	Cost    float64
	ROI     float64 // (Revenue - Cost) / Cost; 0 when Cost is 0
}

// ByChannel computes per-channel ROI from a portfolio attribution.
// Rows follow the portfolio's channel order (sorted ASC).
func ByChannel(p *domain.PortfolioAttribution) []ChannelROI {
	rows := make([]ChannelROI, 0, len(p.Channels))
	for _, cm := range p.Channels {
		row := ChannelROI{Channel: cm.Channel, Revenue: cm.Credit, Cost: cm.Cost}
		if cm.Cost > 0 {
			row.ROI = (cm.Credit - cm.Cost) / cm.Cost
		}
		rows = append(rows, row)
	}
	return rows
}

// OptimizeBudget reallocates totalBudget across the channels of
// currentBudget proportionally to efficiency score (ROI x credit share).
// Channels without a positive efficiency score keep a minimum floor share;
// with no efficiency data at all the budget is split equally.
func OptimizeBudget(p *domain.PortfolioAttribution, currentBudget map[string]float64, totalBudget float64) map[string]float64 {
	if len(currentBudget) == 0 || totalBudget <= 0 {
		return map[string]float64{}
	}

	efficiency := make(map[string]float64)
	totalEfficiency := 0.0
	for _, row := range ByChannel(p) {
		if row.ROI <= 0 {
			continue
		}
		if _, ok := currentBudget[row.Channel]; !ok {
			continue
		}
		cm := p.ChannelByName(row.Channel)
		score := row.ROI * cm.CreditShare
		if score <= 0 {
			continue
		}
		efficiency[row.Channel] = score
		totalEfficiency += score
	}

	allocation := make(map[string]float64, len(currentBudget))
	if totalEfficiency == 0 {
		equal := totalBudget / float64(len(currentBudget))
		for ch := range currentBudget {
			allocation[ch] = equal
		}
		return allocation
	}

	for ch := range currentBudget {
		if score, ok := efficiency[ch]; ok {
			allocation[ch] = totalBudget * score / totalEfficiency
		} else {
			allocation[ch] = totalBudget * MinAllocationShare
		}
	}
	return allocation
}

// ChannelLift is the incremental conversion-rate lift of one channel.
type ChannelLift struct {
	Channel   string
	TestCR    float64 // conversion rate of exposed journeys
	ControlCR float64 // conversion rate of unexposed journeys
	Lift      float64 // (TestCR - ControlCR) / ControlCR; 0 when ControlCR is 0
}

// IncrementalLift measures per-channel lift between a test group (journeys
// with channel exposure) and a control group. For each channel appearing in
// the test group, the exposed test journeys are compared against control
// journeys without that channel. Results are sorted by channel ASC.
func IncrementalLift(test, control []*domain.Journey) ([]ChannelLift, error) {
	if len(test) == 0 || len(control) == 0 {
		return nil, ErrNoJourneys
	}

	channelSet := make(map[string]bool)
	for _, j := range test {
		for _, ch := range j.Channels() {
			channelSet[ch] = true
		}
	}
	channels := make([]string, 0, len(channelSet))
	for ch := range channelSet {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	var lifts []ChannelLift
	for _, ch := range channels {
		exposed := filterByChannel(test, ch, true)
		unexposed := filterByChannel(control, ch, false)
		if len(exposed) == 0 || len(unexposed) == 0 {
			continue
		}

		lift := ChannelLift{
			Channel:   ch,
			TestCR:    conversionRate(exposed),
			ControlCR: conversionRate(unexposed),
		}
		if lift.ControlCR > 0 {
			lift.Lift = (lift.TestCR - lift.ControlCR) / lift.ControlCR
		}
		lifts = append(lifts, lift)
	}
	return lifts, nil
}

func filterByChannel(journeys []*domain.Journey, channel string, contains bool) []*domain.Journey {
	var out []*domain.Journey
	for _, j := range journeys {
		has := false
		for _, ch := range j.Channels() {
			if ch == channel {
				has = true
				break
			}
		}
		if has == contains {
			out = append(out, j)
		}
	}
	return out
}

func conversionRate(journeys []*domain.Journey) float64 {
	if len(journeys) == 0 {
		return 0
	}
	converted := 0
	for _, j := range journeys {
		if j.Converted {
			converted++
		}
	}
	return float64(converted) / float64(len(journeys))
}
