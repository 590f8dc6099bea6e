package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/storage"
)

// AttributionRunStore implements storage.AttributionRunStore using ClickHouse.
// Run headers and per-channel credit rows live in separate tables joined by run_id.
type AttributionRunStore struct {
	conn *Conn
}

// NewAttributionRunStore creates a new AttributionRunStore.
func NewAttributionRunStore(conn *Conn) *AttributionRunStore {
	return &AttributionRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AttributionRunStore = (*AttributionRunStore)(nil)

// Insert adds a new run with its credit rows. Returns ErrDuplicateKey if run_id exists.
func (s *AttributionRunStore) Insert(ctx context.Context, run *domain.AttributionRun) (err error) {
	defer observeQuery("insert", time.Now(), &err)

	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	// MergeTree doesn't enforce uniqueness, so check explicitly before insert.
	exists, err := s.exists(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO attribution_runs (
			run_id, created_at_ms, seed, model_ids,
			journeys_included, journeys_excluded, total_conversions,
			total_revenue, total_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		run.RunID,
		run.CreatedAtMs,
		run.Seed,
		run.ModelIDs,
		int64(run.JourneysIncluded),
		int64(run.JourneysExcluded),
		int64(run.TotalConversions),
		run.TotalRevenue,
		run.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("insert attribution run: %w", err)
	}

	return s.insertCredits(ctx, run.Credits)
}

// insertCredits batch-inserts the per-channel credit rows of a run.
func (s *AttributionRunStore) insertCredits(ctx context.Context, credits []domain.ChannelCredit) error {
	if len(credits) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO attribution_channel_credits (
			run_id, model_id, channel, credit, cost, roas, credit_share, touchpoints
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range credits {
		err = batch.Append(
			c.RunID,
			c.ModelID,
			c.Channel,
			c.Credit,
			c.Cost,
			c.ROAS,
			c.CreditShare,
			int32(c.Touchpoints),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByID retrieves a run with its credits by run ID. Returns ErrNotFound if not exists.
func (s *AttributionRunStore) GetByID(ctx context.Context, runID string) (_ *domain.AttributionRun, err error) {
	defer observeQuery("get_by_id", time.Now(), &err)

	query := `
		SELECT
			run_id, created_at_ms, seed, model_ids,
			journeys_included, journeys_excluded, total_conversions,
			total_revenue, total_cost
		FROM attribution_runs
		WHERE run_id = ?
		LIMIT 1
	`

	row := s.conn.QueryRow(ctx, query, runID)

	run, err := scanRun(row)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	credits, err := s.GetCredits(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, c := range credits {
		run.Credits = append(run.Credits, *c)
	}

	return run, nil
}

// GetCredits retrieves the credit rows of a run, ordered by model_id, channel ASC.
func (s *AttributionRunStore) GetCredits(ctx context.Context, runID string) (_ []*domain.ChannelCredit, err error) {
	defer observeQuery("get_credits", time.Now(), &err)

	query := `
		SELECT run_id, model_id, channel, credit, cost, roas, credit_share, touchpoints
		FROM attribution_channel_credits
		WHERE run_id = ?
		ORDER BY model_id ASC, channel ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	var credits []*domain.ChannelCredit
	for rows.Next() {
		var c domain.ChannelCredit
		var touchpoints int32

		err := rows.Scan(
			&c.RunID,
			&c.ModelID,
			&c.Channel,
			&c.Credit,
			&c.Cost,
			&c.ROAS,
			&c.CreditShare,
			&touchpoints,
		)
		if err != nil {
			return nil, fmt.Errorf("scan credit row: %w", err)
		}
		c.Touchpoints = int(touchpoints)

		credits = append(credits, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit rows: %w", err)
	}

	return credits, nil
}

// GetRecent retrieves up to limit runs without credits, newest first.
func (s *AttributionRunStore) GetRecent(ctx context.Context, limit int) (_ []*domain.AttributionRun, err error) {
	defer observeQuery("get_recent", time.Now(), &err)

	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT
			run_id, created_at_ms, seed, model_ids,
			journeys_included, journeys_excluded, total_conversions,
			total_revenue, total_cost
		FROM attribution_runs
		ORDER BY created_at_ms DESC, run_id ASC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.AttributionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// exists checks if a run with the given ID exists.
func (s *AttributionRunStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM attribution_runs WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// rowScanner covers both driver.Row and driver.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans one run header row.
func scanRun(row rowScanner) (*domain.AttributionRun, error) {
	var run domain.AttributionRun
	var included, excluded, conversions int64

	err := row.Scan(
		&run.RunID,
		&run.CreatedAtMs,
		&run.Seed,
		&run.ModelIDs,
		&included,
		&excluded,
		&conversions,
		&run.TotalRevenue,
		&run.TotalCost,
	)
	if err != nil {
		return nil, err
	}

	run.JourneysIncluded = int(included)
	run.JourneysExcluded = int(excluded)
	run.TotalConversions = int(conversions)

	return &run, nil
}
