// Package positions sizes accepted signals under a capped Kelly rule, opens
// positions through the execution sink, and manages each open position
// through a monitor-and-close lifecycle with realized/unrealized P&L.
package positions

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/ports"
)

const (
	// DefaultBaseCapital is the account capital position sizes scale from.
	DefaultBaseCapital = 10000.0

	// DefaultMonitorInterval is the tick period of the monitor loop.
	DefaultMonitorInterval = 60 * time.Second

	// DefaultTopSignals limits how many ranked signals one cycle executes.
	DefaultTopSignals = 5

	// Default drift parameters for the synthetic mark model.
	markDriftMean   = 0.1
	markDriftStddev = 0.5
)

// Config controls the manager.
type Config struct {
	BaseCapital     float64
	MonitorInterval time.Duration
	TopSignals      int
}

// Manager owns the open-positions map: all position mutation goes through
// its methods and serializes on one mutex. The monitor loop runs
// concurrently with signal execution; closes may race and are idempotent.
type Manager struct {
	cfg        Config
	narratives ports.NarrativeSource
	arbiter    ports.ReflexiveArbiter
	sink       ports.ExecutionSink
	store      ports.LedgerStorage // optional; nil disables persistence

	mu       sync.Mutex
	open     map[string]*domain.Position
	pending  map[string]bool // subject keys with an execution in flight
	closed   []domain.ClosedPosition
	realized float64

	// drift samples the mark-model drift factor. Replaced in tests for
	// deterministic marks.
	drift func() float64
}

// New creates a Manager. store may be nil.
func New(
	cfg Config,
	narratives ports.NarrativeSource,
	arbiter ports.ReflexiveArbiter,
	sink ports.ExecutionSink,
	store ports.LedgerStorage,
) *Manager {
	if cfg.BaseCapital <= 0 {
		cfg.BaseCapital = DefaultBaseCapital
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = DefaultMonitorInterval
	}
	if cfg.TopSignals <= 0 {
		cfg.TopSignals = DefaultTopSignals
	}
	return &Manager{
		cfg:        cfg,
		narratives: narratives,
		arbiter:    arbiter,
		sink:       sink,
		store:      store,
		open:       make(map[string]*domain.Position),
		pending:    make(map[string]bool),
		drift: func() float64 {
			return rand.NormFloat64()*markDriftStddev + markDriftMean
		},
	}
}

// ExecuteTop runs the ranked signal list through the arbiter and opens
// positions for the top qualifying signals. Returns how many opened.
func (m *Manager) ExecuteTop(ctx context.Context, signals []domain.ArbitrageSignal) int {
	limit := m.cfg.TopSignals
	if limit > len(signals) {
		limit = len(signals)
	}

	opened := 0
	for _, sig := range signals[:limit] {
		ok, err := m.ExecuteSignal(ctx, sig)
		if err != nil {
			slog.Warn("signal execution failed", "subject_key", sig.SubjectKey(), "err", err)
			continue
		}
		if ok {
			opened++
		}
	}
	return opened
}

// ExecuteSignal consults the reflexive arbiter and, if it clears the
// confidence floor, hands the signal to AcceptSignal.
func (m *Manager) ExecuteSignal(ctx context.Context, sig domain.ArbitrageSignal) (bool, error) {
	state := domain.MarketState{
		NVX:           metadataNVX(sig),
		OpenPositions: m.OpenCount(),
	}
	verdict, err := m.arbiter.Evaluate(ctx, sig, state)
	if err != nil {
		return false, fmt.Errorf("positions.ExecuteSignal: arbiter: %w", err)
	}
	return m.AcceptSignal(ctx, sig, verdict)
}

// AcceptSignal opens a position for the signal's subject key. It is a no-op
// unless the verdict confidence exceeds the execution floor and no open
// position exists for the key. The subject is reserved before the sink call
// so a concurrent accept for the same key cannot double-open.
func (m *Manager) AcceptSignal(ctx context.Context, sig domain.ArbitrageSignal, verdict domain.ReflexiveVerdict) (bool, error) {
	if verdict.Confidence <= domain.MinExecutionConfidence {
		return false, nil
	}

	key := sig.SubjectKey()

	m.mu.Lock()
	if m.open[key] != nil || m.pending[key] {
		m.mu.Unlock()
		return false, nil
	}
	m.pending[key] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, key)
		m.mu.Unlock()
	}()

	size := domain.PositionSize(verdict.Confidence, sig.RiskScore, m.cfg.BaseCapital)
	pkg := domain.TradePackage{
		Timestamp:      time.Now().UTC(),
		NarrativeID:    sig.NarrativeID,
		FinancialAsset: sig.FinancialAsset,
		Direction:      domain.DirectionFor(sig.Type),
		Size:           size,
		Strategy:       verdict.Strategy,
		Metadata:       sig.Metadata,
	}

	result, err := m.sink.Execute(ctx, pkg)
	if err != nil {
		return false, fmt.Errorf("positions.AcceptSignal: execute %s: %w", key, err)
	}
	if !result.Executed() {
		slog.Debug("execution rejected", "subject_key", key, "status", result.Status)
		return false, nil
	}

	pos := &domain.Position{
		ID:             key,
		NarrativeID:    sig.NarrativeID,
		FinancialAsset: sig.FinancialAsset,
		Direction:      pkg.Direction,
		Size:           size,
		Strategy:       verdict.Strategy,
		EntryTime:      time.Now().UTC(),
		Status:         domain.StatusOpen,
		ExecutionID:    result.ExecutionID,
	}

	m.mu.Lock()
	m.open[key] = pos
	m.mu.Unlock()

	slog.Info("position opened",
		"subject_key", key,
		"direction", pos.Direction,
		"size", fmt.Sprintf("%.2f", size),
		"strategy", verdict.Strategy,
		"confidence", fmt.Sprintf("%.2f", verdict.Confidence),
	)
	return true, nil
}

// ClosePosition removes the position from the open set, realizes its P&L,
// and appends it to the closed ledger. Closing an id that is not open is a
// no-op: the monitor loop and manual closes may race, and the loser of the
// race must not double-count.
func (m *Manager) ClosePosition(ctx context.Context, id string, reason domain.CloseReason) {
	m.mu.Lock()
	pos, ok := m.open[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.open, id)
	m.mu.Unlock()

	pnl := m.markPosition(ctx, pos, time.Now().UTC())

	entry := domain.ClosedPosition{
		Position: *pos,
		PnL:      pnl,
		Reason:   reason,
		ClosedAt: time.Now().UTC(),
	}
	entry.Status = domain.StatusClosed

	m.mu.Lock()
	m.closed = append(m.closed, entry)
	m.realized += pnl
	m.mu.Unlock()

	slog.Info("position closed",
		"subject_key", id,
		"pnl", fmt.Sprintf("%.2f", pnl),
		"reason", reason,
	)

	if m.store != nil {
		if err := m.store.SaveClosedPosition(ctx, entry); err != nil {
			slog.Warn("failed to persist closed position", "subject_key", id, "err", err)
		}
	}
}

// OpenCount returns the number of open positions.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// OpenPosition returns a copy of the open position for the subject key.
func (m *Manager) OpenPosition(id string) (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.open[id]; ok {
		return *pos, true
	}
	return domain.Position{}, false
}

// markPosition computes the synthetic unrealized P&L of a position from its
// narrative's current volatility and the elapsed hold time.
func (m *Manager) markPosition(ctx context.Context, pos *domain.Position, now time.Time) float64 {
	snap, ok := m.narratives.Get(ctx, pos.NarrativeID)
	if !ok {
		return 0
	}
	hours := now.Sub(pos.EntryTime).Hours()
	return domain.MarkToModel(pos.Size, snap.Volatility30d, hours, m.drift())
}

// metadataNVX extracts the narrative volatility index a signal was scored
// under. Zero when absent.
func metadataNVX(sig domain.ArbitrageSignal) float64 {
	if v, ok := sig.Metadata["nvx"].(float64); ok {
		return v
	}
	return 0
}
