package domain

import "context"

// HistoryStore persists completed simulation batches for replay and audit.
// The game itself never reads this back; it exists for operators.
type HistoryStore interface {
	InsertBatch(ctx context.Context, batch SimulationBatch, ticks []SimulationTick) error
	ListRecent(ctx context.Context, limit int) ([]SimulationBatch, error)
	TicksForBatch(ctx context.Context, batchID string) ([]SimulationTick, error)
}
