package domain

// Touchpoint is a single marketing interaction inside a customer journey.
type Touchpoint struct {
	Channel     string  // marketing channel identifier
	TimestampMs int64   // interaction timestamp (ms since epoch)
	Cost        float64 // spend attributed to this interaction
	CampaignID  string  // optional campaign identifier
	CreativeID  string  // optional creative identifier
}

// Journey is one customer's ordered sequence of touchpoints ending either
// in a conversion or in no conversion.
type Journey struct {
	JourneyID       string
	Touchpoints     []Touchpoint // ordered by TimestampMs ASC
	Converted       bool
	ConversionValue float64 // revenue if Converted, 0 otherwise
	ConversionTime  int64   // ms since epoch; must be >= last touchpoint time
}

// TotalCost sums the cost of all touchpoints in the journey.
func (j *Journey) TotalCost() float64 {
	total := 0.0
	for _, tp := range j.Touchpoints {
		total += tp.Cost
	}
	return total
}

// Channels returns the distinct channels of the journey in first-seen order.
func (j *Journey) Channels() []string {
	seen := make(map[string]bool, len(j.Touchpoints))
	var channels []string
	for _, tp := range j.Touchpoints {
		if !seen[tp.Channel] {
			seen[tp.Channel] = true
			channels = append(channels, tp.Channel)
		}
	}
	return channels
}

// Well-known channel identifiers. Journeys may carry arbitrary channel
// strings; these cover the standard acquisition mix.
const (
	ChannelPaidSearch = "paid_search"
	ChannelPaidSocial = "paid_social"
	ChannelOrganic    = "organic_search"
	ChannelEmail      = "email"
	ChannelDirect     = "direct"
	ChannelReferral   = "referral"
	ChannelDisplay    = "display"
	ChannelVideo      = "video"
	ChannelAffiliate  = "affiliate"
	ChannelInfluencer = "influencer"
)
