package ports

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// LedgerStats aggregates the persisted trading history.
type LedgerStats struct {
	SignalsRecorded int
	PositionsClosed int
	RealizedPnL     float64
	WinRate         float64
}

// LedgerStorage persists emitted signals and the closed-position ledger.
type LedgerStorage interface {
	// SaveSignals records the signals produced by one scan cycle.
	SaveSignals(ctx context.Context, signals []domain.ArbitrageSignal) error

	// SaveClosedPosition appends a finished position to the ledger.
	SaveClosedPosition(ctx context.Context, pos domain.ClosedPosition) error

	// GetClosedPositions returns the ledger, most recent first.
	GetClosedPositions(ctx context.Context) ([]domain.ClosedPosition, error)

	// GetLedgerStats aggregates over everything persisted.
	GetLedgerStats(ctx context.Context) (LedgerStats, error)

	// Close releases the database cleanly.
	Close() error
}
