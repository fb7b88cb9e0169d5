package positions

import (
	"context"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
)

// uncategorizedExposure labels open size on narratives whose content matches
// no known theme.
const uncategorizedExposure = "other"

// Report aggregates realized and unrealized P&L, win rate, and per-theme
// exposure across the book. Unrealized marks use the current model drift, so
// two consecutive reports over the same book may differ.
func (m *Manager) Report(ctx context.Context) domain.PerformanceReport {
	now := time.Now().UTC()

	m.mu.Lock()
	openCopy := make([]domain.Position, 0, len(m.open))
	for _, pos := range m.open {
		openCopy = append(openCopy, *pos)
	}
	realized := m.realized
	closedCount := len(m.closed)
	wins := 0
	for _, c := range m.closed {
		if c.PnL > 0 {
			wins++
		}
	}
	m.mu.Unlock()

	report := domain.PerformanceReport{
		GeneratedAt: now,
		RealizedPnL: realized,
		ActiveCount: len(openCopy),
		ClosedCount: closedCount,
		Exposure:    make(map[string]float64),
	}
	if closedCount > 0 {
		report.WinRate = float64(wins) / float64(closedCount)
	}

	for _, pos := range openCopy {
		category := uncategorizedExposure
		if snap, ok := m.narratives.Get(ctx, pos.NarrativeID); ok {
			report.UnrealizedPnL += m.markPosition(ctx, &pos, now)
			if c := domain.CategorizeNarrative(snap.Content); c != "" {
				category = c
			}
		}
		report.Exposure[category] += pos.Size
	}

	report.TotalPnL = report.RealizedPnL + report.UnrealizedPnL
	return report
}

// ClosedPositions returns a copy of the closed ledger in close order.
func (m *Manager) ClosedPositions() []domain.ClosedPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ClosedPosition, len(m.closed))
	copy(out, m.closed)
	return out
}

// RealizedPnL returns the total realized P&L across closed positions.
func (m *Manager) RealizedPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.realized
}
