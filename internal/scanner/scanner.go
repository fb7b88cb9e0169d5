// Package scanner turns narrative snapshots into scored arbitrage signals
// by combining the external stress/velocity analyzers with the static
// narrative→asset correlation table.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/ports"
)

// AnalyzerUnavailableError reports a failed or timed-out external analyzer
// call. The affected candidate is skipped; the scan continues.
type AnalyzerUnavailableError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerUnavailableError) Error() string {
	return fmt.Sprintf("scanner: analyzer %s unavailable: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerUnavailableError) Unwrap() error {
	return e.Err
}

// Config controls scan behavior.
type Config struct {
	// AnalyzerTimeout bounds each external analyzer/probe call.
	AnalyzerTimeout time.Duration

	// Workers is the size of the per-snapshot analysis pool.
	// Zero means NumCPU × 2.
	Workers int

	// AnalyzerRatePerSec throttles outbound analyzer/probe calls.
	// Zero disables throttling.
	AnalyzerRatePerSec int
}

// DefaultConfig returns conservative scan settings.
func DefaultConfig() Config {
	return Config{
		AnalyzerTimeout:    2 * time.Second,
		AnalyzerRatePerSec: 50,
	}
}

// Scanner scores narrative/asset candidates. Stateless between cycles; all
// inputs arrive per call and all outputs are immutable signals.
type Scanner struct {
	cfg      Config
	topology ports.TopologyAnalyzer
	flux     ports.FluxAnalyzer
	probe    ports.LiquidityProbe
	table    domain.CorrelationTable
	limiter  *rate.Limiter
}

// New creates a Scanner with all collaborators injected.
func New(
	cfg Config,
	topology ports.TopologyAnalyzer,
	flux ports.FluxAnalyzer,
	probe ports.LiquidityProbe,
	table domain.CorrelationTable,
) *Scanner {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.AnalyzerRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.AnalyzerRatePerSec), cfg.AnalyzerRatePerSec)
	}
	if cfg.AnalyzerTimeout <= 0 {
		cfg.AnalyzerTimeout = DefaultConfig().AnalyzerTimeout
	}
	return &Scanner{
		cfg:      cfg,
		topology: topology,
		flux:     flux,
		probe:    probe,
		table:    table,
		limiter:  limiter,
	}
}

// Scan analyzes every snapshot and returns the admitted signals sorted
// descending by expected profit. The sort is stable, so equal-profit signals
// keep their arrival order. Analyzer failures skip the affected candidate
// only.
func (s *Scanner) Scan(ctx context.Context, snapshots []domain.NarrativeSnapshot) []domain.ArbitrageSignal {
	start := time.Now()
	nvx := NVXIndex(snapshots)

	signals := analyzeSnapshotsConcurrent(ctx, s, snapshots, nvx)

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].ExpectedProfit > signals[j].ExpectedProfit
	})

	slog.Debug("scan complete",
		"narratives", len(snapshots),
		"signals", len(signals),
		"nvx", fmt.Sprintf("%.2f", nvx),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return signals
}

// analyzeSnapshot scores one narrative against all of its correlated assets.
func (s *Scanner) analyzeSnapshot(ctx context.Context, snap domain.NarrativeSnapshot, nvx float64) []domain.ArbitrageSignal {
	topo, err := s.callTopology(ctx, snap)
	if err != nil {
		slog.Debug("skipping narrative", "narrative_id", snap.ID, "err", err)
		return nil
	}
	flux, err := s.callFlux(ctx, snap)
	if err != nil {
		slog.Debug("skipping narrative", "narrative_id", snap.ID, "err", err)
		return nil
	}

	correlations := s.table.Lookup(snap.Content)
	assets := make([]string, 0, len(correlations))
	for asset := range correlations {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var out []domain.ArbitrageSignal
	for _, asset := range assets {
		liquidity, err := s.callProbe(ctx, asset, correlations[asset])
		if err != nil {
			slog.Debug("skipping asset", "narrative_id", snap.ID, "asset", asset, "err", err)
			continue
		}
		if !domain.IsTradeableDivergence(snap, liquidity) {
			continue
		}
		out = append(out, domain.ArbitrageSignal{
			Timestamp:      time.Now().UTC(),
			NarrativeID:    snap.ID,
			FinancialAsset: asset,
			Type:           domain.ClassifySignalType(topo, flux),
			Strength:       domain.SignalStrength(topo, flux),
			ExpectedProfit: domain.ExpectedProfit(snap, liquidity),
			RiskScore:      topo.Entropy,
			Metadata: map[string]any{
				"nvx":       nvx,
				"topology":  topo,
				"flux":      flux,
				"liquidity": liquidity,
			},
		})
	}
	return out
}

func (s *Scanner) callTopology(ctx context.Context, snap domain.NarrativeSnapshot) (domain.TopologyReading, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.TopologyReading{}, &AnalyzerUnavailableError{Analyzer: "topology", Err: err}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzerTimeout)
	defer cancel()
	reading, err := s.topology.DetectStress(callCtx, snap)
	if err != nil {
		return domain.TopologyReading{}, &AnalyzerUnavailableError{Analyzer: "topology", Err: err}
	}
	return reading, nil
}

func (s *Scanner) callFlux(ctx context.Context, snap domain.NarrativeSnapshot) (domain.FluxReading, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.FluxReading{}, &AnalyzerUnavailableError{Analyzer: "flux", Err: err}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzerTimeout)
	defer cancel()
	reading, err := s.flux.MapVelocity(callCtx, snap)
	if err != nil {
		return domain.FluxReading{}, &AnalyzerUnavailableError{Analyzer: "flux", Err: err}
	}
	return reading, nil
}

func (s *Scanner) callProbe(ctx context.Context, asset string, correlation float64) (domain.LiquidityReading, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.LiquidityReading{}, &AnalyzerUnavailableError{Analyzer: "liquidity", Err: err}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AnalyzerTimeout)
	defer cancel()
	reading, err := s.probe.Probe(callCtx, asset, correlation)
	if err != nil {
		return domain.LiquidityReading{}, &AnalyzerUnavailableError{Analyzer: "liquidity", Err: err}
	}
	return reading, nil
}

// NVXIndex is the narrative volatility index: mean 30-day volatility across
// all tracked narratives, scaled to a 0-100 style figure.
func NVXIndex(snapshots []domain.NarrativeSnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	var sum float64
	for _, s := range snapshots {
		sum += s.Volatility30d
	}
	return sum / float64(len(snapshots)) * 100
}
