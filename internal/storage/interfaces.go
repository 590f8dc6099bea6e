package storage

import (
	"context"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

// JourneyStore provides access to journey and touchpoint storage.
type JourneyStore interface {
	// Insert adds a new journey with its touchpoints. Returns ErrDuplicateKey if journey_id exists.
	Insert(ctx context.Context, j *domain.Journey) error

	// InsertBulk adds multiple journeys atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, journeys []*domain.Journey) error

	// GetByID retrieves a journey by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, journeyID string) (*domain.Journey, error)

	// GetAll retrieves all journeys, ordered by journey_id ASC.
	GetAll(ctx context.Context) ([]*domain.Journey, error)

	// GetByChannel retrieves journeys containing at least one touchpoint on the
	// given channel, ordered by journey_id ASC.
	GetByChannel(ctx context.Context, channel string) ([]*domain.Journey, error)

	// GetConverted retrieves all converted journeys, ordered by journey_id ASC.
	GetConverted(ctx context.Context) ([]*domain.Journey, error)
}

// AttributionRunStore provides access to attribution run storage.
type AttributionRunStore interface {
	// Insert adds a new run with its channel credit rows. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.AttributionRun) error

	// GetByID retrieves a run with its credits by run ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AttributionRun, error)

	// GetCredits retrieves the channel credit rows of a run, ordered by model_id, channel ASC.
	GetCredits(ctx context.Context, runID string) ([]*domain.ChannelCredit, error)

	// GetRecent retrieves up to limit runs without credits, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.AttributionRun, error)
}
