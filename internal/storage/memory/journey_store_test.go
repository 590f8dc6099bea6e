package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
)

func testJourney(id string, converted bool, channels ...string) *domain.Journey {
	j := &domain.Journey{
		JourneyID: id,
		Converted: converted,
	}
	for i, ch := range channels {
		j.Touchpoints = append(j.Touchpoints, domain.Touchpoint{
			Channel:     ch,
			TimestampMs: int64(1000 * (i + 1)),
			Cost:        1.0,
		})
	}
	if converted {
		j.ConversionValue = 100.0
		j.ConversionTime = int64(1000 * (len(channels) + 1))
	}
	return j
}

func TestJourneyStore_InsertAndGet(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	j := testJourney("j1", true, "search", "social")

	if err := store.Insert(ctx, j); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByID(ctx, "j1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if len(result.Touchpoints) != 2 {
		t.Errorf("Expected 2 touchpoints, got %d", len(result.Touchpoints))
	}
	if result.ConversionValue != 100.0 {
		t.Errorf("ConversionValue mismatch: got %f, want %f", result.ConversionValue, 100.0)
	}
}

func TestJourneyStore_NotFound(t *testing.T) {
	store := NewJourneyStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestJourneyStore_DuplicateKey(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	j := testJourney("j1", false, "search")

	if err := store.Insert(ctx, j); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, j)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestJourneyStore_InvalidInput(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Journey{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}

func TestJourneyStore_InsertBulkPartialDuplicate(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testJourney("j1", false, "search")); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	journeys := []*domain.Journey{
		testJourney("j2", false, "social"), // new
		testJourney("j1", false, "search"), // duplicate
	}

	err := store.InsertBulk(ctx, journeys)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify no partial insert
	all, _ := store.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 journey (rollback), got %d", len(all))
	}
}

func TestJourneyStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	journeys := []*domain.Journey{
		testJourney("j1", false, "search"),
		testJourney("j1", false, "social"),
	}

	err := store.InsertBulk(ctx, journeys)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestJourneyStore_GetAllOrdered(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	journeys := []*domain.Journey{
		testJourney("j3", false, "email"),
		testJourney("j1", true, "search"),
		testJourney("j2", false, "social"),
	}
	if err := store.InsertBulk(ctx, journeys); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	want := []string{"j1", "j2", "j3"}
	if len(all) != len(want) {
		t.Fatalf("Expected %d journeys, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].JourneyID != id {
			t.Errorf("Position %d: got %s, want %s", i, all[i].JourneyID, id)
		}
	}
}

func TestJourneyStore_GetByChannel(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	journeys := []*domain.Journey{
		testJourney("j1", true, "search", "social"),
		testJourney("j2", false, "social"),
		testJourney("j3", true, "email"),
	}
	if err := store.InsertBulk(ctx, journeys); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByChannel(ctx, "social")
	if err != nil {
		t.Fatalf("GetByChannel failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 journeys, got %d", len(result))
	}
	if result[0].JourneyID != "j1" || result[1].JourneyID != "j2" {
		t.Errorf("Unexpected order: %s, %s", result[0].JourneyID, result[1].JourneyID)
	}
}

func TestJourneyStore_GetConverted(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	journeys := []*domain.Journey{
		testJourney("j1", true, "search"),
		testJourney("j2", false, "social"),
		testJourney("j3", true, "email"),
	}
	if err := store.InsertBulk(ctx, journeys); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetConverted(ctx)
	if err != nil {
		t.Fatalf("GetConverted failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 converted journeys, got %d", len(result))
	}
	for _, j := range result {
		if !j.Converted {
			t.Errorf("Journey %s is not converted", j.JourneyID)
		}
	}
}

func TestJourneyStore_DefensiveCopy(t *testing.T) {
	store := NewJourneyStore()
	ctx := context.Background()

	j := testJourney("j1", false, "search")
	if err := store.Insert(ctx, j); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the inserted value must not affect stored state.
	j.Touchpoints[0].Channel = "mutated"

	stored, _ := store.GetByID(ctx, "j1")
	if stored.Touchpoints[0].Channel != "search" {
		t.Errorf("Stored journey mutated: got %s", stored.Touchpoints[0].Channel)
	}

	// Mutating a returned value must not affect stored state either.
	stored.Touchpoints[0].Channel = "mutated"
	again, _ := store.GetByID(ctx, "j1")
	if again.Touchpoints[0].Channel != "search" {
		t.Errorf("Stored journey mutated via result: got %s", again.Touchpoints[0].Channel)
	}
}
