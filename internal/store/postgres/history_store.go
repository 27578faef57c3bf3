package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fablestreet/marketsim/internal/domain"
)

// HistoryStore implements domain.HistoryStore using PostgreSQL. A batch
// row records one simulation call; its ticks land in sim_ticks.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a new HistoryStore backed by the given connection pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

var _ domain.HistoryStore = (*HistoryStore)(nil)

const batchSelectCols = `id, profile, current_day, days, source,
	tick_count, event_count, elapsed_ms, created_at`

func scanBatchRows(rows pgx.Rows) ([]domain.SimulationBatch, error) {
	var batches []domain.SimulationBatch
	for rows.Next() {
		var b domain.SimulationBatch
		if err := rows.Scan(
			&b.ID, &b.Profile, &b.CurrentDay, &b.Days, &b.Source,
			&b.TickCount, &b.EventCount, &b.ElapsedMS, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// InsertBatch records a completed simulation batch and its ticks in one
// transaction. Replayed batch IDs are silently skipped.
func (s *HistoryStore) InsertBatch(ctx context.Context, batch domain.SimulationBatch, ticks []domain.SimulationTick) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin batch insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertBatch = `
		INSERT INTO sim_batches (
			id, profile, current_day, days, source,
			tick_count, event_count, elapsed_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		) ON CONFLICT (id) DO NOTHING`

	tag, err := tx.Exec(ctx, insertBatch,
		batch.ID, batch.Profile, batch.CurrentDay, batch.Days, batch.Source,
		batch.TickCount, batch.EventCount, batch.ElapsedMS, batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert batch %s: %w", batch.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if len(ticks) > 0 {
		const insertTick = `
			INSERT INTO sim_ticks (
				batch_id, ticker, day, price, previous_day_price,
				price_change, volatility, headline, description
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9
			) ON CONFLICT (batch_id, ticker, day) DO NOTHING`

		b := &pgx.Batch{}
		for _, t := range ticks {
			b.Queue(insertTick,
				batch.ID, t.Ticker, t.Day, t.Price, t.PreviousDayPrice,
				t.PriceChange, t.Volatility, t.Headline, t.Description,
			)
		}

		br := tx.SendBatch(ctx, b)
		for i := range ticks {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("postgres: insert tick %d of batch %s: %w", i, batch.ID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("postgres: close tick batch %s: %w", batch.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit batch %s: %w", batch.ID, err)
	}
	return nil
}

// ListRecent returns the most recent simulation batches, newest first.
func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]domain.SimulationBatch, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + batchSelectCols + ` FROM sim_batches ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent batches: %w", err)
	}
	defer rows.Close()

	batches, err := scanBatchRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent batches: %w", err)
	}
	return batches, nil
}

// TicksForBatch returns the ticks recorded for one batch ordered by day
// then ticker.
func (s *HistoryStore) TicksForBatch(ctx context.Context, batchID string) ([]domain.SimulationTick, error) {
	const query = `
		SELECT ticker, day, price, previous_day_price,
			price_change, volatility, headline, description
		FROM sim_ticks
		WHERE batch_id = $1
		ORDER BY day, ticker`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ticks for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var ticks []domain.SimulationTick
	for rows.Next() {
		var t domain.SimulationTick
		if err := rows.Scan(
			&t.Ticker, &t.Day, &t.Price, &t.PreviousDayPrice,
			&t.PriceChange, &t.Volatility, &t.Headline, &t.Description,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan tick for batch %s: %w", batchID, err)
		}
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate ticks for batch %s: %w", batchID, err)
	}
	return ticks, nil
}
