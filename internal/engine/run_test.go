package engine

import (
	"context"
	"testing"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

func TestResultToRun(t *testing.T) {
	eng := testEngine()

	cfg := Config{
		Models: []domain.ModelConfig{
			{ModelType: domain.ModelTypeLinear},
			{ModelType: domain.ModelTypeLastTouch},
		},
		MinConvertedJourneys: 1,
		BootstrapResamples:   20,
		Seed:                 7,
	}

	result, err := eng.Run(context.Background(), scenarioJourneys(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	run := result.ToRun(7, 1234)

	if run.RunID != result.RunID {
		t.Errorf("RunID mismatch: %s vs %s", run.RunID, result.RunID)
	}
	if run.Seed != 7 || run.CreatedAtMs != 1234 {
		t.Errorf("Seed/CreatedAtMs: got %d/%d", run.Seed, run.CreatedAtMs)
	}
	if len(run.ModelIDs) != 2 || run.ModelIDs[0] != domain.ModelTypeLastTouch {
		t.Errorf("ModelIDs not sorted: %v", run.ModelIDs)
	}
	if run.TotalRevenue != result.Portfolio.TotalRevenue {
		t.Errorf("TotalRevenue mismatch")
	}

	// One credit row per model per channel, sorted by (model_id, channel).
	if len(run.Credits) == 0 {
		t.Fatal("Expected credit rows")
	}
	for i := 1; i < len(run.Credits); i++ {
		prev, cur := run.Credits[i-1], run.Credits[i]
		if prev.ModelID > cur.ModelID ||
			(prev.ModelID == cur.ModelID && prev.Channel >= cur.Channel) {
			t.Errorf("Credits out of order at %d: %s/%s before %s/%s",
				i, prev.ModelID, prev.Channel, cur.ModelID, cur.Channel)
		}
		if cur.RunID != result.RunID {
			t.Errorf("Credit row %d has wrong run ID", i)
		}
	}
}
