// Package storage persists the signal and position ledger in SQLite.
//
// Layout:
//   - `signals`: one row per emitted signal, append-only. Scan cycles write
//     in one transaction so a crash never records half a cycle.
//   - `closed_positions`: the immutable closed-position ledger.
//   - Automatic prune on startup keeps the database light: signals older
//     than 30 days are dropped, closed positions are kept for 90.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    emitted_at      DATETIME NOT NULL,
    narrative_id    TEXT     NOT NULL,
    financial_asset TEXT     NOT NULL,
    signal_type     TEXT     NOT NULL,
    strength        REAL     NOT NULL DEFAULT 0,
    expected_profit REAL     NOT NULL DEFAULT 0,
    risk_score      REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS closed_positions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    subject_key     TEXT     NOT NULL,
    narrative_id    TEXT     NOT NULL,
    financial_asset TEXT     NOT NULL,
    direction       TEXT     NOT NULL,
    size            REAL     NOT NULL,
    strategy        TEXT     NOT NULL,
    execution_id    TEXT     NOT NULL,
    entry_time      DATETIME NOT NULL,
    closed_at       DATETIME NOT NULL,
    pnl             REAL     NOT NULL,
    close_reason    TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_emitted ON signals(emitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_subject ON signals(narrative_id, financial_asset);
CREATE INDEX IF NOT EXISTS idx_closed_at       ON closed_positions(closed_at DESC);
`

const (
	retentionSignals   = 30 * 24 * time.Hour
	retentionPositions = 90 * 24 * time.Hour
)

// SQLiteLedger implements ports.LedgerStorage on SQLite (pure Go, no CGo).
type SQLiteLedger struct {
	db *sql.DB
}

var _ ports.LedgerStorage = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) the database at the given path, applies
// the schema and prunes old rows.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}

	s := &SQLiteLedger{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSignals records one scan cycle's emitted signals in a single
// transaction.
func (s *SQLiteLedger) SaveSignals(ctx context.Context, signals []domain.ArbitrageSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSignals: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals
			(emitted_at, narrative_id, financial_asset, signal_type,
			 strength, expected_profit, risk_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveSignals: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		if _, err := stmt.ExecContext(ctx,
			sig.Timestamp.UTC(),
			sig.NarrativeID,
			sig.FinancialAsset,
			string(sig.Type),
			sig.Strength,
			sig.ExpectedProfit,
			sig.RiskScore,
		); err != nil {
			return fmt.Errorf("storage.SaveSignals: insert %s: %w", sig.SubjectKey(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSignals: commit: %w", err)
	}
	return nil
}

// SaveClosedPosition appends one finished position to the ledger.
func (s *SQLiteLedger) SaveClosedPosition(ctx context.Context, pos domain.ClosedPosition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO closed_positions
			(subject_key, narrative_id, financial_asset, direction, size,
			 strategy, execution_id, entry_time, closed_at, pnl, close_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		pos.ID,
		pos.NarrativeID,
		pos.FinancialAsset,
		string(pos.Direction),
		pos.Size,
		pos.Strategy,
		pos.ExecutionID,
		pos.EntryTime.UTC(),
		pos.ClosedAt.UTC(),
		pos.PnL,
		string(pos.Reason),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveClosedPosition: insert %s: %w", pos.ID, err)
	}
	return nil
}

// GetClosedPositions returns the ledger, most recent close first.
func (s *SQLiteLedger) GetClosedPositions(ctx context.Context) ([]domain.ClosedPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_key, narrative_id, financial_asset, direction, size,
		       strategy, execution_id, entry_time, closed_at, pnl, close_reason
		FROM closed_positions
		ORDER BY closed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetClosedPositions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.ClosedPosition
	for rows.Next() {
		var pos domain.ClosedPosition
		var direction, reason string
		if err := rows.Scan(
			&pos.ID,
			&pos.NarrativeID,
			&pos.FinancialAsset,
			&direction,
			&pos.Size,
			&pos.Strategy,
			&pos.ExecutionID,
			&pos.EntryTime,
			&pos.ClosedAt,
			&pos.PnL,
			&reason,
		); err != nil {
			return nil, fmt.Errorf("storage.GetClosedPositions: scan row: %w", err)
		}
		pos.Direction = domain.Direction(direction)
		pos.Reason = domain.CloseReason(reason)
		pos.Status = domain.StatusClosed
		out = append(out, pos)
	}

	return out, rows.Err()
}

// GetLedgerStats aggregates over everything persisted.
func (s *SQLiteLedger) GetLedgerStats(ctx context.Context) (ports.LedgerStats, error) {
	var stats ports.LedgerStats

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signals`,
	).Scan(&stats.SignalsRecorded); err != nil {
		return stats, fmt.Errorf("storage.GetLedgerStats: count signals: %w", err)
	}

	var wins int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(pnl), 0),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0)
		FROM closed_positions
	`).Scan(&stats.PositionsClosed, &stats.RealizedPnL, &wins); err != nil {
		return stats, fmt.Errorf("storage.GetLedgerStats: aggregate positions: %w", err)
	}

	if stats.PositionsClosed > 0 {
		stats.WinRate = float64(wins) / float64(stats.PositionsClosed)
	}
	return stats, nil
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// pruneOld drops rows outside the retention windows.
func (s *SQLiteLedger) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM signals WHERE emitted_at < ?`, now.Add(-retentionSignals))
	s.db.ExecContext(ctx, `DELETE FROM closed_positions WHERE closed_at < ?`, now.Add(-retentionPositions))
}
