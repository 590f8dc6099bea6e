package domain

// CreditVector maps channel -> conversion credit for a single journey under
// a single model. Credits for a converted journey sum to its ConversionValue;
// non-converted journeys receive an empty vector.
type CreditVector map[string]float64

// Total sums all channel credits in the vector.
func (cv CreditVector) Total() float64 {
	total := 0.0
	for _, credit := range cv {
		total += credit
	}
	return total
}

// Clone returns an independent copy of the vector.
func (cv CreditVector) Clone() CreditVector {
	out := make(CreditVector, len(cv))
	for ch, credit := range cv {
		out[ch] = credit
	}
	return out
}

// JourneyCredit pairs a journey with its model-assigned credit vector.
type JourneyCredit struct {
	JourneyID string
	Credits   CreditVector
}

// ChannelMetrics is the aggregated per-channel view across all journeys.
type ChannelMetrics struct {
	Channel        string
	Credit         float64 // attributed conversion value
	Cost           float64 // total touchpoint spend on this channel
	ROAS           float64 // Credit / Cost; 0 when Cost is 0
	Touchpoints    int     // touchpoint count across included journeys
	CreditShare    float64 // Credit / total attributed value
	ConvertedTouch int     // touchpoints inside converted journeys
}

// PortfolioAttribution is the aggregate result of one model over a journey set.
type PortfolioAttribution struct {
	ModelID          string
	Channels         []ChannelMetrics // sorted by Channel ASC
	TotalConversions int
	TotalRevenue     float64
	TotalCost        float64
	JourneysIncluded int
	JourneysExcluded int
}

// ChannelByName returns the metrics row for a channel, or nil when absent.
func (p *PortfolioAttribution) ChannelByName(channel string) *ChannelMetrics {
	for i := range p.Channels {
		if p.Channels[i].Channel == channel {
			return &p.Channels[i]
		}
	}
	return nil
}
