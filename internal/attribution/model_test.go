package attribution

import (
	"context"
	"math"
	"testing"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

const creditTolerance = 1e-6

// convertedJourney builds a converted journey with touchpoints 1 day apart
// and conversion 1 day after the last touchpoint.
func convertedJourney(value float64, channels ...string) *domain.Journey {
	tps := make([]domain.Touchpoint, len(channels))
	for i, ch := range channels {
		tps[i] = domain.Touchpoint{Channel: ch, TimestampMs: int64(i+1) * 86400000}
	}
	return &domain.Journey{
		Touchpoints:     tps,
		Converted:       true,
		ConversionValue: value,
		ConversionTime:  int64(len(channels)+1) * 86400000,
	}
}

func nonConvertedJourney(channels ...string) *domain.Journey {
	tps := make([]domain.Touchpoint, len(channels))
	for i, ch := range channels {
		tps[i] = domain.Touchpoint{Channel: ch, TimestampMs: int64(i+1) * 86400000}
	}
	return &domain.Journey{Touchpoints: tps}
}

func allModels(t *testing.T) []Model {
	t.Helper()
	models := make([]Model, 0, len(domain.AllModelTypes()))
	for _, mt := range domain.AllModelTypes() {
		m, err := FromConfig(domain.ModelConfig{ModelType: mt})
		if err != nil {
			t.Fatalf("FromConfig(%s) error: %v", mt, err)
		}
		models = append(models, m)
	}
	return models
}

func TestAllocate_Conservation(t *testing.T) {
	input := &ModelInput{
		Journeys: []*domain.Journey{
			convertedJourney(100, "search", "social", "search"),
			nonConvertedJourney("social"),
			convertedJourney(50, "email", "search"),
			convertedJourney(75, "display", "email", "social", "search"),
		},
		MinConvertedJourneys: 1,
	}

	wantTotal := 225.0

	for _, m := range allModels(t) {
		t.Run(m.ID(), func(t *testing.T) {
			vectors, err := m.Allocate(context.Background(), input)
			if err != nil {
				t.Fatalf("Allocate() error: %v", err)
			}
			if len(vectors) != len(input.Journeys) {
				t.Fatalf("Allocate() returned %d vectors, want %d", len(vectors), len(input.Journeys))
			}

			total := 0.0
			for i, cv := range vectors {
				j := input.Journeys[i]
				sum := cv.Total()
				if j.Converted {
					if math.Abs(sum-j.ConversionValue) > creditTolerance*j.ConversionValue {
						t.Errorf("journey %d: credit sum = %f, want %f", i, sum, j.ConversionValue)
					}
				} else if sum != 0 {
					t.Errorf("non-converted journey %d: credit sum = %f, want 0", i, sum)
				}
				for ch, credit := range cv {
					if credit < 0 {
						t.Errorf("journey %d channel %s: negative credit %f", i, ch, credit)
					}
				}
				total += sum
			}
			if math.Abs(total-wantTotal) > creditTolerance*wantTotal {
				t.Errorf("total credit = %f, want %f", total, wantTotal)
			}
		})
	}
}

func TestAllocate_SingleTouchpointConsistency(t *testing.T) {
	input := &ModelInput{
		Journeys:             []*domain.Journey{convertedJourney(100, "search")},
		MinConvertedJourneys: 1,
	}

	singlePath := []string{
		domain.ModelTypeFirstTouch,
		domain.ModelTypeLastTouch,
		domain.ModelTypeLinear,
		domain.ModelTypeTimeDecay,
		domain.ModelTypePositionBased,
	}

	for _, mt := range singlePath {
		m, err := FromConfig(domain.ModelConfig{ModelType: mt})
		if err != nil {
			t.Fatalf("FromConfig(%s) error: %v", mt, err)
		}
		vectors, err := m.Allocate(context.Background(), input)
		if err != nil {
			t.Fatalf("%s: Allocate() error: %v", mt, err)
		}
		if got := vectors[0]["search"]; math.Abs(got-100) > creditTolerance {
			t.Errorf("%s: search credit = %f, want 100", mt, got)
		}
	}
}

func TestLinearModel_EndToEnd(t *testing.T) {
	// J1: [search, social, search] converts at 100; J2: [social] does not
	// convert; J3: [email, search] converts at 50.
	input := &ModelInput{
		Journeys: []*domain.Journey{
			convertedJourney(100, "search", "social", "search"),
			nonConvertedJourney("social"),
			convertedJourney(50, "email", "search"),
		},
		MinConvertedJourneys: 1,
	}

	vectors, err := NewLinearModel().Allocate(context.Background(), input)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	totals := make(domain.CreditVector)
	for _, cv := range vectors {
		for ch, credit := range cv {
			totals[ch] += credit
		}
	}

	want := map[string]float64{
		"search": 100*2.0/3.0 + 50*0.5, // 91.67
		"social": 100 * 1.0 / 3.0,      // 33.33
		"email":  50 * 0.5,             // 25
	}
	for ch, w := range want {
		if math.Abs(totals[ch]-w) > 1e-9 {
			t.Errorf("channel %s: credit = %f, want %f", ch, totals[ch], w)
		}
	}
	if math.Abs(totals.Total()-150) > creditTolerance {
		t.Errorf("total credit = %f, want 150", totals.Total())
	}
}

func TestLinearModel_RelabelSymmetry(t *testing.T) {
	original := &ModelInput{
		Journeys:             []*domain.Journey{convertedJourney(90, "a", "b", "a")},
		MinConvertedJourneys: 1,
	}
	relabeled := &ModelInput{
		Journeys:             []*domain.Journey{convertedJourney(90, "x", "y", "x")},
		MinConvertedJourneys: 1,
	}

	m := NewLinearModel()
	origVec, err := m.Allocate(context.Background(), original)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	relVec, err := m.Allocate(context.Background(), relabeled)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}

	if math.Abs(origVec[0]["a"]-relVec[0]["x"]) > creditTolerance {
		t.Errorf("relabeled credit mismatch: a=%f x=%f", origVec[0]["a"], relVec[0]["x"])
	}
	if math.Abs(origVec[0]["b"]-relVec[0]["y"]) > creditTolerance {
		t.Errorf("relabeled credit mismatch: b=%f y=%f", origVec[0]["b"], relVec[0]["y"])
	}
}

func TestPositionBasedModel_Collapse(t *testing.T) {
	m := NewPositionBasedModel(0.4, 0.4, 0.2)

	tests := []struct {
		name    string
		journey *domain.Journey
		want    map[string]float64
	}{
		{
			name:    "two touchpoints split 50/50",
			journey: convertedJourney(100, "search", "email"),
			want:    map[string]float64{"search": 50, "email": 50},
		},
		{
			name:    "one touchpoint takes all",
			journey: convertedJourney(100, "search"),
			want:    map[string]float64{"search": 100},
		},
		{
			name:    "three touchpoints 40/20/40",
			journey: convertedJourney(100, "search", "social", "email"),
			want:    map[string]float64{"search": 40, "social": 20, "email": 40},
		},
		{
			name:    "five touchpoints interior split",
			journey: convertedJourney(100, "a", "b", "c", "d", "e"),
			want:    map[string]float64{"a": 40, "b": 100.0 / 15, "c": 100.0 / 15, "d": 100.0 / 15, "e": 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectors, err := m.Allocate(context.Background(), &ModelInput{
				Journeys:             []*domain.Journey{tt.journey},
				MinConvertedJourneys: 1,
			})
			if err != nil {
				t.Fatalf("Allocate() error: %v", err)
			}
			for ch, w := range tt.want {
				if math.Abs(vectors[0][ch]-w) > 1e-9 {
					t.Errorf("channel %s: credit = %f, want %f", ch, vectors[0][ch], w)
				}
			}
		})
	}
}

func TestTimeDecayModel_Monotonicity(t *testing.T) {
	// Touchpoints 1 day apart; the later touchpoint must receive strictly
	// more credit for any positive half-life.
	for _, halfLife := range []float64{0.5, 1, 7, 30} {
		m := NewTimeDecayModel(halfLife)
		input := &ModelInput{
			Journeys:             []*domain.Journey{convertedJourney(100, "early", "late")},
			MinConvertedJourneys: 1,
		}
		vectors, err := m.Allocate(context.Background(), input)
		if err != nil {
			t.Fatalf("halfLife=%v: Allocate() error: %v", halfLife, err)
		}
		early, late := vectors[0]["early"], vectors[0]["late"]
		if early >= late {
			t.Errorf("halfLife=%v: early credit %f >= late credit %f", halfLife, early, late)
		}
		if math.Abs(early+late-100) > creditTolerance {
			t.Errorf("halfLife=%v: credits sum to %f, want 100", halfLife, early+late)
		}
	}
}

func TestTimeDecayModel_HalfLifeRatio(t *testing.T) {
	// Two touchpoints exactly one half-life apart: the earlier weight is
	// half the later one, so the split is 1/3 vs 2/3.
	j := &domain.Journey{
		Touchpoints: []domain.Touchpoint{
			{Channel: "early", TimestampMs: 0},
			{Channel: "late", TimestampMs: 7 * 86400000},
		},
		Converted:       true,
		ConversionValue: 90,
		ConversionTime:  7 * 86400000,
	}
	vectors, err := NewTimeDecayModel(7).Allocate(context.Background(), &ModelInput{
		Journeys:             []*domain.Journey{j},
		MinConvertedJourneys: 1,
	})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if got := vectors[0]["early"]; math.Abs(got-30) > 1e-9 {
		t.Errorf("early credit = %f, want 30", got)
	}
	if got := vectors[0]["late"]; math.Abs(got-60) > 1e-9 {
		t.Errorf("late credit = %f, want 60", got)
	}
}

func TestAllocate_InsufficientData(t *testing.T) {
	input := &ModelInput{
		Journeys: []*domain.Journey{
			convertedJourney(100, "search"),
			nonConvertedJourney("social"),
		},
		MinConvertedJourneys: 5,
	}

	for _, m := range allModels(t) {
		if _, err := m.Allocate(context.Background(), input); err != ErrInsufficientData {
			t.Errorf("%s: Allocate() error = %v, want ErrInsufficientData", m.ID(), err)
		}
	}
}

func TestAllocate_Determinism(t *testing.T) {
	input := &ModelInput{
		Journeys: []*domain.Journey{
			convertedJourney(100, "search", "social", "email"),
			convertedJourney(40, "display", "search"),
			nonConvertedJourney("social", "display"),
		},
		MinConvertedJourneys: 1,
	}

	for _, m := range allModels(t) {
		first, err := m.Allocate(context.Background(), input)
		if err != nil {
			t.Fatalf("%s: Allocate() error: %v", m.ID(), err)
		}
		for run := 0; run < 3; run++ {
			again, err := m.Allocate(context.Background(), input)
			if err != nil {
				t.Fatalf("%s: Allocate() error: %v", m.ID(), err)
			}
			for i := range first {
				for ch, credit := range first[i] {
					if again[i][ch] != credit {
						t.Errorf("%s: journey %d channel %s: %f != %f", m.ID(), i, ch, again[i][ch], credit)
					}
				}
			}
		}
	}
}
