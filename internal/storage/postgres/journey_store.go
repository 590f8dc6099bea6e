package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
)

// JourneyStore implements storage.JourneyStore using PostgreSQL.
// Journeys and their touchpoints live in separate tables joined by journey_id.
type JourneyStore struct {
	pool *Pool
}

// NewJourneyStore creates a new JourneyStore.
func NewJourneyStore(pool *Pool) *JourneyStore {
	return &JourneyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.JourneyStore = (*JourneyStore)(nil)

const insertJourneyQuery = `
	INSERT INTO journeys (journey_id, converted, conversion_value, conversion_time)
	VALUES ($1, $2, $3, $4)
`

const insertTouchpointQuery = `
	INSERT INTO touchpoints (journey_id, position, channel, timestamp_ms, cost, campaign_id, creative_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Insert adds a new journey with its touchpoints. Returns ErrDuplicateKey if journey_id exists.
func (s *JourneyStore) Insert(ctx context.Context, j *domain.Journey) (err error) {
	defer observeQuery("insert", time.Now(), &err)

	if j == nil || j.JourneyID == "" {
		return storage.ErrInvalidInput
	}
	return s.insertAll(ctx, []*domain.Journey{j})
}

// InsertBulk adds multiple journeys atomically. Fails entire batch on any duplicate.
func (s *JourneyStore) InsertBulk(ctx context.Context, journeys []*domain.Journey) (err error) {
	defer observeQuery("insert_bulk", time.Now(), &err)

	if len(journeys) == 0 {
		return nil
	}
	for _, j := range journeys {
		if j == nil || j.JourneyID == "" {
			return storage.ErrInvalidInput
		}
	}
	return s.insertAll(ctx, journeys)
}

// insertAll writes journeys and touchpoints inside a single transaction.
func (s *JourneyStore) insertAll(ctx context.Context, journeys []*domain.Journey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, j := range journeys {
		_, err := tx.Exec(ctx, insertJourneyQuery,
			j.JourneyID,
			j.Converted,
			j.ConversionValue,
			j.ConversionTime,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert journey: %w", err)
		}

		for pos, tp := range j.Touchpoints {
			_, err := tx.Exec(ctx, insertTouchpointQuery,
				j.JourneyID,
				pos,
				tp.Channel,
				tp.TimestampMs,
				tp.Cost,
				tp.CampaignID,
				tp.CreativeID,
			)
			if err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert touchpoint: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a journey by its ID. Returns ErrNotFound if not exists.
func (s *JourneyStore) GetByID(ctx context.Context, journeyID string) (_ *domain.Journey, err error) {
	defer observeQuery("get_by_id", time.Now(), &err)

	query := `
		SELECT journey_id, converted, conversion_value, conversion_time
		FROM journeys
		WHERE journey_id = $1
	`

	var j domain.Journey
	err = s.pool.QueryRow(ctx, query, journeyID).Scan(
		&j.JourneyID,
		&j.Converted,
		&j.ConversionValue,
		&j.ConversionTime,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get journey by id: %w", err)
	}

	if err := s.loadTouchpoints(ctx, []*domain.Journey{&j}); err != nil {
		return nil, err
	}
	return &j, nil
}

// GetAll retrieves all journeys, ordered by journey_id ASC.
func (s *JourneyStore) GetAll(ctx context.Context) (_ []*domain.Journey, err error) {
	defer observeQuery("get_all", time.Now(), &err)

	query := `
		SELECT journey_id, converted, conversion_value, conversion_time
		FROM journeys
		ORDER BY journey_id ASC
	`
	return s.queryJourneys(ctx, query)
}

// GetByChannel retrieves journeys with at least one touchpoint on the channel.
func (s *JourneyStore) GetByChannel(ctx context.Context, channel string) (_ []*domain.Journey, err error) {
	defer observeQuery("get_by_channel", time.Now(), &err)

	query := `
		SELECT j.journey_id, j.converted, j.conversion_value, j.conversion_time
		FROM journeys j
		WHERE EXISTS (
			SELECT 1 FROM touchpoints t
			WHERE t.journey_id = j.journey_id AND t.channel = $1
		)
		ORDER BY j.journey_id ASC
	`
	return s.queryJourneys(ctx, query, channel)
}

// GetConverted retrieves all converted journeys, ordered by journey_id ASC.
func (s *JourneyStore) GetConverted(ctx context.Context) (_ []*domain.Journey, err error) {
	defer observeQuery("get_converted", time.Now(), &err)

	query := `
		SELECT journey_id, converted, conversion_value, conversion_time
		FROM journeys
		WHERE converted = true
		ORDER BY journey_id ASC
	`
	return s.queryJourneys(ctx, query)
}

// queryJourneys runs a journey row query and hydrates touchpoints.
func (s *JourneyStore) queryJourneys(ctx context.Context, query string, args ...any) ([]*domain.Journey, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journeys: %w", err)
	}
	defer rows.Close()

	journeys, err := scanJourneys(rows)
	if err != nil {
		return nil, err
	}

	if err := s.loadTouchpoints(ctx, journeys); err != nil {
		return nil, err
	}
	return journeys, nil
}

// loadTouchpoints hydrates touchpoints for the given journeys in one query.
func (s *JourneyStore) loadTouchpoints(ctx context.Context, journeys []*domain.Journey) error {
	if len(journeys) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Journey, len(journeys))
	ids := make([]string, 0, len(journeys))
	for _, j := range journeys {
		byID[j.JourneyID] = j
		ids = append(ids, j.JourneyID)
	}

	query := `
		SELECT journey_id, channel, timestamp_ms, cost, campaign_id, creative_id
		FROM touchpoints
		WHERE journey_id = ANY($1)
		ORDER BY journey_id ASC, position ASC
	`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query touchpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var journeyID string
		var tp domain.Touchpoint

		err := rows.Scan(
			&journeyID,
			&tp.Channel,
			&tp.TimestampMs,
			&tp.Cost,
			&tp.CampaignID,
			&tp.CreativeID,
		)
		if err != nil {
			return fmt.Errorf("scan touchpoint row: %w", err)
		}

		if j, ok := byID[journeyID]; ok {
			j.Touchpoints = append(j.Touchpoints, tp)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate touchpoint rows: %w", err)
	}

	return nil
}

// scanJourneys scans multiple rows into a slice of Journey without touchpoints.
func scanJourneys(rows pgx.Rows) ([]*domain.Journey, error) {
	var journeys []*domain.Journey

	for rows.Next() {
		var j domain.Journey

		err := rows.Scan(
			&j.JourneyID,
			&j.Converted,
			&j.ConversionValue,
			&j.ConversionTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan journey row: %w", err)
		}

		journeys = append(journeys, &j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journey rows: %w", err)
	}

	return journeys, nil
}
