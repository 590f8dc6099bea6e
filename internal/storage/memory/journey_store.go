package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
)

// JourneyStore is an in-memory implementation of storage.JourneyStore.
type JourneyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Journey // keyed by journey_id
}

// NewJourneyStore creates a new in-memory journey store.
func NewJourneyStore() *JourneyStore {
	return &JourneyStore{
		data: make(map[string]*domain.Journey),
	}
}

// Compile-time interface check.
var _ storage.JourneyStore = (*JourneyStore)(nil)

// copyJourney returns a deep copy so callers cannot mutate stored state.
func copyJourney(j *domain.Journey) *domain.Journey {
	cp := *j
	cp.Touchpoints = make([]domain.Touchpoint, len(j.Touchpoints))
	copy(cp.Touchpoints, j.Touchpoints)
	return &cp
}

// Insert adds a new journey. Returns ErrDuplicateKey if journey_id exists.
func (s *JourneyStore) Insert(_ context.Context, j *domain.Journey) error {
	if j == nil || j.JourneyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[j.JourneyID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[j.JourneyID] = copyJourney(j)
	return nil
}

// InsertBulk adds multiple journeys atomically. Fails entire batch on any duplicate.
func (s *JourneyStore) InsertBulk(_ context.Context, journeys []*domain.Journey) error {
	if len(journeys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(journeys))
	for _, j := range journeys {
		if j == nil || j.JourneyID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[j.JourneyID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[j.JourneyID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[j.JourneyID] = struct{}{}
	}

	// Second pass: insert all
	for _, j := range journeys {
		s.data[j.JourneyID] = copyJourney(j)
	}

	return nil
}

// GetByID retrieves a journey by its ID. Returns ErrNotFound if not exists.
func (s *JourneyStore) GetByID(_ context.Context, journeyID string) (*domain.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, exists := s.data[journeyID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyJourney(j), nil
}

// GetAll retrieves all journeys, ordered by journey_id ASC.
func (s *JourneyStore) GetAll(_ context.Context) ([]*domain.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(*domain.Journey) bool { return true }), nil
}

// GetByChannel retrieves journeys with at least one touchpoint on the channel.
func (s *JourneyStore) GetByChannel(_ context.Context, channel string) ([]*domain.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(j *domain.Journey) bool {
		for _, tp := range j.Touchpoints {
			if tp.Channel == channel {
				return true
			}
		}
		return false
	}), nil
}

// GetConverted retrieves all converted journeys, ordered by journey_id ASC.
func (s *JourneyStore) GetConverted(_ context.Context) ([]*domain.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(j *domain.Journey) bool { return j.Converted }), nil
}

// collect copies matching journeys sorted by journey_id. Caller holds the lock.
func (s *JourneyStore) collect(match func(*domain.Journey) bool) []*domain.Journey {
	var result []*domain.Journey
	for _, j := range s.data {
		if match(j) {
			result = append(result, copyJourney(j))
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].JourneyID < result[k].JourneyID
	})

	return result
}
