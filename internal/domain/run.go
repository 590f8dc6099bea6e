package domain

// ChannelCredit is one persisted per-channel row of an attribution run.
// Corresponds to the attribution_channel_credits table.
type ChannelCredit struct {
	RunID       string
	ModelID     string
	Channel     string
	Credit      float64
	Cost        float64
	ROAS        float64
	CreditShare float64
	Touchpoints int
}

// AttributionRun is the persisted record of one engine invocation.
type AttributionRun struct {
	RunID            string // deterministic hash
	CreatedAtMs      int64
	Seed             int64
	ModelIDs         []string // models included, canonical order
	JourneysIncluded int
	JourneysExcluded int
	TotalConversions int
	TotalRevenue     float64
	TotalCost        float64
	Credits          []ChannelCredit // per model, per channel, sorted
}
