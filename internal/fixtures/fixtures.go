// Package fixtures provides deterministic sample journeys for the
// memory-backed CLI path and for examples in tests.
package fixtures

import (
	"fmt"
	"math/rand"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// baseTimestampMs anchors all fixture journeys (2024-01-01T00:00:00Z).
const baseTimestampMs = int64(1704067200000)

const msPerHour = int64(3600000)

var fixtureChannels = []string{
	domain.ChannelPaidSearch,
	domain.ChannelPaidSocial,
	domain.ChannelOrganic,
	domain.ChannelEmail,
	domain.ChannelDirect,
	domain.ChannelDisplay,
}

// Journeys returns a small handcrafted journey set. The set includes
// multi-touch converted paths, a single-touch conversion and non-converting
// paths, so every attribution model produces distinct output on it.
func Journeys() []*domain.Journey {
	return []*domain.Journey{
		{
			JourneyID: "fixture-001",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelPaidSearch, TimestampMs: baseTimestampMs, Cost: 12.50},
				{Channel: domain.ChannelPaidSocial, TimestampMs: baseTimestampMs + 6*msPerHour, Cost: 8.00},
				{Channel: domain.ChannelPaidSearch, TimestampMs: baseTimestampMs + 30*msPerHour, Cost: 12.50},
			},
			Converted:       true,
			ConversionValue: 100.00,
			ConversionTime:  baseTimestampMs + 31*msPerHour,
		},
		{
			JourneyID: "fixture-002",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelPaidSocial, TimestampMs: baseTimestampMs + 2*msPerHour, Cost: 8.00},
			},
		},
		{
			JourneyID: "fixture-003",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelEmail, TimestampMs: baseTimestampMs + 1*msPerHour, Cost: 0.50},
				{Channel: domain.ChannelPaidSearch, TimestampMs: baseTimestampMs + 26*msPerHour, Cost: 12.50},
			},
			Converted:       true,
			ConversionValue: 50.00,
			ConversionTime:  baseTimestampMs + 27*msPerHour,
		},
		{
			JourneyID: "fixture-004",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelOrganic, TimestampMs: baseTimestampMs, Cost: 0},
				{Channel: domain.ChannelDisplay, TimestampMs: baseTimestampMs + 48*msPerHour, Cost: 3.20},
				{Channel: domain.ChannelEmail, TimestampMs: baseTimestampMs + 96*msPerHour, Cost: 0.50},
				{Channel: domain.ChannelDirect, TimestampMs: baseTimestampMs + 120*msPerHour, Cost: 0},
			},
			Converted:       true,
			ConversionValue: 240.00,
			ConversionTime:  baseTimestampMs + 121*msPerHour,
		},
		{
			JourneyID: "fixture-005",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelDisplay, TimestampMs: baseTimestampMs + 10*msPerHour, Cost: 3.20},
				{Channel: domain.ChannelOrganic, TimestampMs: baseTimestampMs + 40*msPerHour, Cost: 0},
			},
		},
		{
			JourneyID: "fixture-006",
			Touchpoints: []domain.Touchpoint{
				{Channel: domain.ChannelDirect, TimestampMs: baseTimestampMs + 5*msPerHour, Cost: 0},
			},
			Converted:       true,
			ConversionValue: 75.00,
			ConversionTime:  baseTimestampMs + 5*msPerHour,
		},
	}
}

// Synthetic generates n seeded journeys for larger runs. The same (n, seed)
// pair always yields the same set.
func Synthetic(n int, seed int64) []*domain.Journey {
	rng := rand.New(rand.NewSource(seed))

	journeys := make([]*domain.Journey, 0, n)
	for i := 0; i < n; i++ {
		pathLen := 1 + rng.Intn(5)
		start := baseTimestampMs + int64(rng.Intn(720))*msPerHour

		j := &domain.Journey{
			JourneyID: fmt.Sprintf("synthetic-%06d", i),
		}
		ts := start
		for p := 0; p < pathLen; p++ {
			channel := fixtureChannels[rng.Intn(len(fixtureChannels))]
			j.Touchpoints = append(j.Touchpoints, domain.Touchpoint{
				Channel:     channel,
				TimestampMs: ts,
				Cost:        float64(rng.Intn(2000)) / 100.0,
			})
			ts += int64(1+rng.Intn(72)) * msPerHour
		}

		// Roughly 40% of paths convert.
		if rng.Float64() < 0.4 {
			j.Converted = true
			j.ConversionValue = float64(2500+rng.Intn(22500)) / 100.0
			j.ConversionTime = ts
		}

		journeys = append(journeys, j)
	}

	return journeys
}
