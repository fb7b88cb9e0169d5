package positions

import (
	"context"
	"log/slog"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
)

// MonitorLoop re-evaluates every open position on a fixed interval until the
// context is cancelled. Intended to run in its own goroutine alongside the
// scan cycle.
func (m *Manager) MonitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()

	slog.Info("position monitor started", "interval", m.cfg.MonitorInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("position monitor stopped", "open_positions", m.OpenCount())
			return
		case <-ticker.C:
			m.MonitorTick(ctx)
		}
	}
}

// MonitorTick runs one monitor pass: each open position is closed when its
// narrative's coherence has collapsed, or when its unrealized P&L has run
// past the profit target. Collapse is checked first; a collapsing narrative
// exits as a collapse even if the mark happens to show a profit.
func (m *Manager) MonitorTick(ctx context.Context) {
	now := time.Now().UTC()

	m.mu.Lock()
	snapshot := make([]domain.Position, 0, len(m.open))
	for _, pos := range m.open {
		snapshot = append(snapshot, *pos)
	}
	m.mu.Unlock()

	for _, pos := range snapshot {
		narrative, ok := m.narratives.Get(ctx, pos.NarrativeID)
		if !ok {
			slog.Warn("open position references unknown narrative", "subject_key", pos.ID)
			continue
		}

		if narrative.CoherenceRating.Collapsed() {
			m.ClosePosition(ctx, pos.ID, domain.CloseNarrativeCollapse)
			continue
		}

		hours := now.Sub(pos.EntryTime).Hours()
		unrealized := domain.MarkToModel(pos.Size, narrative.Volatility30d, hours, m.drift())
		if unrealized > domain.ProfitTargetFraction*pos.Size {
			m.ClosePosition(ctx, pos.ID, domain.CloseProfitTarget)
		}
	}
}
