package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
)

// AttributionRunStore is an in-memory implementation of storage.AttributionRunStore.
type AttributionRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AttributionRun // keyed by run_id
}

// NewAttributionRunStore creates a new in-memory attribution run store.
func NewAttributionRunStore() *AttributionRunStore {
	return &AttributionRunStore{
		data: make(map[string]*domain.AttributionRun),
	}
}

// Compile-time interface check.
var _ storage.AttributionRunStore = (*AttributionRunStore)(nil)

// copyRun returns a deep copy so callers cannot mutate stored state.
func copyRun(run *domain.AttributionRun) *domain.AttributionRun {
	cp := *run
	cp.ModelIDs = make([]string, len(run.ModelIDs))
	copy(cp.ModelIDs, run.ModelIDs)
	cp.Credits = make([]domain.ChannelCredit, len(run.Credits))
	copy(cp.Credits, run.Credits)
	return &cp
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AttributionRunStore) Insert(_ context.Context, run *domain.AttributionRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = copyRun(run)
	return nil
}

// GetByID retrieves a run with its credits. Returns ErrNotFound if not exists.
func (s *AttributionRunStore) GetByID(_ context.Context, runID string) (*domain.AttributionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(run), nil
}

// GetCredits retrieves the credit rows of a run, ordered by model_id, channel ASC.
func (s *AttributionRunStore) GetCredits(_ context.Context, runID string) ([]*domain.ChannelCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	credits := make([]*domain.ChannelCredit, 0, len(run.Credits))
	for i := range run.Credits {
		cp := run.Credits[i]
		credits = append(credits, &cp)
	}

	sort.Slice(credits, func(i, j int) bool {
		if credits[i].ModelID != credits[j].ModelID {
			return credits[i].ModelID < credits[j].ModelID
		}
		return credits[i].Channel < credits[j].Channel
	})

	return credits, nil
}

// GetRecent retrieves up to limit runs without credits, newest first.
func (s *AttributionRunStore) GetRecent(_ context.Context, limit int) ([]*domain.AttributionRun, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*domain.AttributionRun, 0, len(s.data))
	for _, run := range s.data {
		cp := copyRun(run)
		cp.Credits = nil
		runs = append(runs, cp)
	}

	// Newest first, run_id breaks created_at ties for stable output.
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtMs != runs[j].CreatedAtMs {
			return runs[i].CreatedAtMs > runs[j].CreatedAtMs
		}
		return runs[i].RunID < runs[j].RunID
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
