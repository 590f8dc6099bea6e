package reconcile

import (
	"sort"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// ChannelDelta describes how a model's view of a channel differs from the
// last-touch baseline reported by ad platforms.
type ChannelDelta struct {
	Channel        string
	BaselineCredit float64 // last-touch credit
	ModelCredit    float64
	Delta          float64 // ModelCredit - BaselineCredit
	RevenueShare   float64 // |Delta| / total revenue; fraction redistributed
}

// BaselineComparison holds per-channel deltas of one model vs. last-touch.
type BaselineComparison struct {
	ModelID  string
	Baseline string // baseline model ID
	Deltas   []ChannelDelta
}

// ComparisonMatrix is the model x channel credit matrix for sensitivity
// display. Channels and Models are sorted ASC; Credits[m][c] aligns with
// Models[m] and Channels[c].
type ComparisonMatrix struct {
	Models   []string
	Channels []string
	Credits  [][]float64
}

// CompareToBaseline computes per-channel credit deltas between a model and
// the last-touch baseline, plus the fraction of total revenue redistributed
// per channel. Channels are the union of both portfolios, sorted ASC.
func CompareToBaseline(baseline, model *domain.PortfolioAttribution) *BaselineComparison {
	channelSet := make(map[string]bool)
	baselineCredit := make(map[string]float64)
	modelCredit := make(map[string]float64)

	for _, cm := range baseline.Channels {
		channelSet[cm.Channel] = true
		baselineCredit[cm.Channel] = cm.Credit
	}
	for _, cm := range model.Channels {
		channelSet[cm.Channel] = true
		modelCredit[cm.Channel] = cm.Credit
	}

	channels := make([]string, 0, len(channelSet))
	for ch := range channelSet {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	cmp := &BaselineComparison{
		ModelID:  model.ModelID,
		Baseline: baseline.ModelID,
		Deltas:   make([]ChannelDelta, 0, len(channels)),
	}
	for _, ch := range channels {
		delta := modelCredit[ch] - baselineCredit[ch]
		d := ChannelDelta{
			Channel:        ch,
			BaselineCredit: baselineCredit[ch],
			ModelCredit:    modelCredit[ch],
			Delta:          delta,
		}
		if model.TotalRevenue > 0 {
			share := delta
			if share < 0 {
				share = -share
			}
			d.RevenueShare = share / model.TotalRevenue
		}
		cmp.Deltas = append(cmp.Deltas, d)
	}
	return cmp
}

// BuildComparisonMatrix assembles the model x channel credit matrix from
// multiple portfolios over the same journey set.
func BuildComparisonMatrix(portfolios []*domain.PortfolioAttribution) *ComparisonMatrix {
	channelSet := make(map[string]bool)
	for _, p := range portfolios {
		for _, cm := range p.Channels {
			channelSet[cm.Channel] = true
		}
	}
	channels := make([]string, 0, len(channelSet))
	for ch := range channelSet {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	models := make([]string, len(portfolios))
	byModel := make(map[string]*domain.PortfolioAttribution, len(portfolios))
	for i, p := range portfolios {
		models[i] = p.ModelID
		byModel[p.ModelID] = p
	}
	sort.Strings(models)

	matrix := &ComparisonMatrix{
		Models:   models,
		Channels: channels,
		Credits:  make([][]float64, len(models)),
	}
	for mi, modelID := range models {
		row := make([]float64, len(channels))
		p := byModel[modelID]
		for ci, ch := range channels {
			if cm := p.ChannelByName(ch); cm != nil {
				row[ci] = cm.Credit
			}
		}
		matrix.Credits[mi] = row
	}
	return matrix
}
