package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/attribution"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

func testEngine() *Engine {
	return New(log.New(io.Discard, "", 0))
}

// scenarioJourneys is the canonical three-journey set: J1 [search, social,
// search] converts at 100, J2 [social] does not convert, J3 [email, search]
// converts at 50.
func scenarioJourneys() []*domain.Journey {
	return []*domain.Journey{
		{
			JourneyID: "j1",
			Touchpoints: []domain.Touchpoint{
				{Channel: "search", TimestampMs: 1000, Cost: 10},
				{Channel: "social", TimestampMs: 2000, Cost: 5},
				{Channel: "search", TimestampMs: 3000, Cost: 10},
			},
			Converted:       true,
			ConversionValue: 100,
			ConversionTime:  4000,
		},
		{
			JourneyID:   "j2",
			Touchpoints: []domain.Touchpoint{{Channel: "social", TimestampMs: 1000, Cost: 5}},
		},
		{
			JourneyID: "j3",
			Touchpoints: []domain.Touchpoint{
				{Channel: "email", TimestampMs: 1000, Cost: 1},
				{Channel: "search", TimestampMs: 2000, Cost: 10},
			},
			Converted:       true,
			ConversionValue: 50,
			ConversionTime:  3000,
		},
	}
}

func TestRun_LinearScenario(t *testing.T) {
	cfg := Config{
		Models:               []domain.ModelConfig{{ModelType: domain.ModelTypeLinear}},
		MinConvertedJourneys: 1,
		BootstrapResamples:   50,
		Seed:                 1,
	}

	result, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.RunID) != 64 {
		t.Errorf("RunID length = %d, want 64", len(result.RunID))
	}

	search := result.Portfolio.ChannelByName("search")
	social := result.Portfolio.ChannelByName("social")
	email := result.Portfolio.ChannelByName("email")
	if search == nil || social == nil || email == nil {
		t.Fatal("missing channel rows in portfolio")
	}
	if math.Abs(search.Credit-91.666666666667) > 1e-6 {
		t.Errorf("search credit = %f, want 91.67", search.Credit)
	}
	if math.Abs(social.Credit-33.333333333333) > 1e-6 {
		t.Errorf("social credit = %f, want 33.33", social.Credit)
	}
	if math.Abs(email.Credit-25) > 1e-6 {
		t.Errorf("email credit = %f, want 25", email.Credit)
	}

	if result.Portfolio.TotalRevenue != 150 {
		t.Errorf("TotalRevenue = %f, want 150", result.Portfolio.TotalRevenue)
	}
	if result.Confidence == nil {
		t.Fatal("Confidence is nil")
	}
	if !result.Confidence.BelowMinSample {
		t.Error("BelowMinSample = false for 2 converted journeys")
	}
	if mr := result.Models[domain.ModelTypeLinear]; mr == nil || !mr.Conservation.Pass {
		t.Error("conservation did not pass")
	}
}

func TestRun_MultiModelComparison(t *testing.T) {
	cfg := Config{
		Models: []domain.ModelConfig{
			{ModelType: domain.ModelTypeLinear},
			{ModelType: domain.ModelTypeLastTouch},
			{ModelType: domain.ModelTypeShapley},
		},
		MinConvertedJourneys: 1,
		BootstrapResamples:   30,
		Seed:                 1,
	}

	result, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Models) != 3 {
		t.Fatalf("Models = %d entries, want 3", len(result.Models))
	}
	if result.Diagnostics.Comparison == nil {
		t.Fatal("Comparison matrix missing")
	}
	if len(result.Diagnostics.Comparison.Models) != 3 {
		t.Errorf("Comparison models = %v", result.Diagnostics.Comparison.Models)
	}

	// Last-touch was requested, so baseline deltas exist for the other two.
	if len(result.Diagnostics.BaselineDeltas) != 2 {
		t.Fatalf("BaselineDeltas = %d entries, want 2", len(result.Diagnostics.BaselineDeltas))
	}
	for _, cmp := range result.Diagnostics.BaselineDeltas {
		if cmp.Baseline != domain.ModelTypeLastTouch {
			t.Errorf("baseline = %s, want LAST_TOUCH", cmp.Baseline)
		}
	}

	// Every model conserves the same total revenue.
	for id, mr := range result.Models {
		if !mr.Conservation.Pass {
			t.Errorf("model %s conservation failed", id)
		}
	}
}

func TestRun_ExcludesMalformedJourneys(t *testing.T) {
	journeys := append(scenarioJourneys(),
		&domain.Journey{JourneyID: "bad1"},
		&domain.Journey{
			JourneyID: "bad2",
			Touchpoints: []domain.Touchpoint{
				{Channel: "search", TimestampMs: 2000},
				{Channel: "email", TimestampMs: 1000},
			},
		},
	)

	cfg := Config{
		Models:               []domain.ModelConfig{{ModelType: domain.ModelTypeLinear}},
		MinConvertedJourneys: 1,
		BootstrapResamples:   20,
	}
	result, err := testEngine().Run(context.Background(), journeys, cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Diagnostics.ExcludedJourneys != 2 {
		t.Errorf("ExcludedJourneys = %d, want 2", result.Diagnostics.ExcludedJourneys)
	}
	if got := result.Diagnostics.ExclusionReasons[attribution.ReasonNoTouchpoints]; got != 1 {
		t.Errorf("NO_TOUCHPOINTS count = %d, want 1", got)
	}
	if got := result.Diagnostics.ExclusionReasons[attribution.ReasonUnorderedTimestamps]; got != 1 {
		t.Errorf("UNORDERED_TIMESTAMPS count = %d, want 1", got)
	}
	if len(result.Diagnostics.ExcludedSamples) != 2 {
		t.Errorf("ExcludedSamples = %v", result.Diagnostics.ExcludedSamples)
	}
	if result.Portfolio.JourneysExcluded != 2 {
		t.Errorf("JourneysExcluded = %d, want 2", result.Portfolio.JourneysExcluded)
	}
}

func TestRun_AllJourneysExcluded(t *testing.T) {
	journeys := []*domain.Journey{{JourneyID: "bad"}}
	cfg := Config{Models: []domain.ModelConfig{{ModelType: domain.ModelTypeLinear}}}

	if _, err := testEngine().Run(context.Background(), journeys, cfg); !errors.Is(err, ErrNoJourneys) {
		t.Errorf("Run() error = %v, want ErrNoJourneys", err)
	}
}

func TestRun_NoModels(t *testing.T) {
	if _, err := testEngine().Run(context.Background(), scenarioJourneys(), Config{}); !errors.Is(err, ErrNoModels) {
		t.Errorf("Run() error = %v, want ErrNoModels", err)
	}
}

func TestRun_InvalidModelConfig(t *testing.T) {
	cfg := Config{Models: []domain.ModelConfig{{ModelType: "UNKNOWN"}}}
	if _, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg); !errors.Is(err, attribution.ErrUnknownModelType) {
		t.Errorf("Run() error = %v, want ErrUnknownModelType", err)
	}
}

func TestRun_PrimaryInsufficientData(t *testing.T) {
	cfg := Config{
		Models:               []domain.ModelConfig{{ModelType: domain.ModelTypeMarkov}},
		MinConvertedJourneys: 100,
		BootstrapResamples:   10,
	}
	if _, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg); !errors.Is(err, attribution.ErrInsufficientData) {
		t.Errorf("Run() error = %v, want ErrInsufficientData", err)
	}
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{
		Models:               []domain.ModelConfig{{ModelType: domain.ModelTypeLinear}},
		MinConvertedJourneys: 1,
		BootstrapResamples:   100,
	}
	if _, err := testEngine().Run(ctx, scenarioJourneys(), cfg); !errors.Is(err, ErrCancelled) {
		t.Errorf("Run() error = %v, want ErrCancelled", err)
	}
}

func TestRun_Determinism(t *testing.T) {
	cfg := Config{
		Models: []domain.ModelConfig{
			{ModelType: domain.ModelTypeShapley},
			{ModelType: domain.ModelTypeMarkov},
		},
		MinConvertedJourneys: 1,
		BootstrapResamples:   50,
		Seed:                 42,
	}

	first, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	second, err := testEngine().Run(context.Background(), scenarioJourneys(), cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if first.RunID != second.RunID {
		t.Errorf("RunID differs: %s != %s", first.RunID, second.RunID)
	}
	if first.Confidence.Significance != second.Confidence.Significance {
		t.Errorf("Significance differs: %f != %f",
			first.Confidence.Significance, second.Confidence.Significance)
	}
	for i, cm := range first.Portfolio.Channels {
		if second.Portfolio.Channels[i].Credit != cm.Credit {
			t.Errorf("channel %s credit differs", cm.Channel)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	if cfg.MinSampleSize != DefaultMinSampleSize {
		t.Errorf("MinSampleSize = %d", cfg.MinSampleSize)
	}
	if cfg.MinAvgPathLength != DefaultMinAvgPathLength {
		t.Errorf("MinAvgPathLength = %f", cfg.MinAvgPathLength)
	}
	if cfg.MinConvertedJourneys != 10 {
		t.Errorf("MinConvertedJourneys = %d, want 10", cfg.MinConvertedJourneys)
	}
	if cfg.BootstrapResamples != DefaultBootstrapResamples {
		t.Errorf("BootstrapResamples = %d", cfg.BootstrapResamples)
	}
	if cfg.Seed != DefaultSeed {
		t.Errorf("Seed = %d", cfg.Seed)
	}

	small := Config{MinSampleSize: 50}.withDefaults()
	if small.MinConvertedJourneys != 1 {
		t.Errorf("MinConvertedJourneys = %d, want 1", small.MinConvertedJourneys)
	}
}
