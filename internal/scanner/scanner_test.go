package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawelabs/rawe/internal/domain"
)

// stubTopology returns a fixed reading per narrative id, or an error for
// ids in fail.
type stubTopology struct {
	readings map[string]domain.TopologyReading
	fail     map[string]bool
}

func (s *stubTopology) DetectStress(_ context.Context, snap domain.NarrativeSnapshot) (domain.TopologyReading, error) {
	if s.fail[snap.ID] {
		return domain.TopologyReading{}, errors.New("topology offline")
	}
	return s.readings[snap.ID], nil
}

type stubFlux struct {
	readings map[string]domain.FluxReading
	fail     map[string]bool
}

func (s *stubFlux) MapVelocity(_ context.Context, snap domain.NarrativeSnapshot) (domain.FluxReading, error) {
	if s.fail[snap.ID] {
		return domain.FluxReading{}, errors.New("flux offline")
	}
	return s.readings[snap.ID], nil
}

type stubProbe struct {
	readings map[string]domain.LiquidityReading
	fail     map[string]bool
}

func (s *stubProbe) Probe(_ context.Context, asset string, _ float64) (domain.LiquidityReading, error) {
	if s.fail[asset] {
		return domain.LiquidityReading{}, errors.New("probe offline")
	}
	return s.readings[asset], nil
}

func testTable() domain.CorrelationTable {
	return domain.CorrelationTable{Rules: []domain.CorrelationRule{
		{Keywords: []string{"BRICS"}, Assets: []domain.AssetCorrelation{
			{Symbol: "DXY", Correlation: -0.8},
			{Symbol: "GLD", Correlation: 0.7},
		}},
		{Keywords: []string{"AI"}, Assets: []domain.AssetCorrelation{
			{Symbol: "NVDA", Correlation: 0.9},
		}},
	}}
}

func snapshotBRICS() domain.NarrativeSnapshot {
	return domain.NarrativeSnapshot{
		ID:              "NARR_001",
		Content:         "BRICS settlement currency",
		Volatility30d:   0.5,
		CoherenceRating: domain.RatingA,
		ObservedAt:      time.Now().UTC(),
	}
}

func snapshotAI() domain.NarrativeSnapshot {
	return domain.NarrativeSnapshot{
		ID:              "NARR_002",
		Content:         "AI breakthrough claims",
		Volatility30d:   0.8,
		CoherenceRating: domain.RatingBB,
		ObservedAt:      time.Now().UTC(),
	}
}

func newTestScanner(topo *stubTopology, flux *stubFlux, probe *stubProbe) *Scanner {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.AnalyzerRatePerSec = 0 // no throttling in tests
	return New(cfg, topo, flux, probe, testTable())
}

func spikingProbe(assets ...string) *stubProbe {
	readings := make(map[string]domain.LiquidityReading)
	for _, a := range assets {
		readings[a] = domain.LiquidityReading{VolatilitySpike: true}
	}
	return &stubProbe{readings: readings}
}

func TestScan_ProducesSignalPerQualifyingAsset(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{
		"NARR_001": {Entropy: 0.8, SignalStrength: 0.6},
	}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{
		"NARR_001": {VelocityIndex: 1.5, MemeticImpact: 0.5},
	}}
	s := newTestScanner(topo, flux, spikingProbe("DXY", "GLD"))

	signals := s.Scan(context.Background(), []domain.NarrativeSnapshot{snapshotBRICS()})
	require.Len(t, signals, 2)

	for _, sig := range signals {
		assert.Equal(t, "NARR_001", sig.NarrativeID)
		assert.Equal(t, domain.SignalNarrativeLeads, sig.Type)
		assert.InDelta(t, 0.3, sig.Strength, 0.0001)
		assert.InDelta(t, 500.0, sig.ExpectedProfit, 0.0001)
		assert.Equal(t, 0.8, sig.RiskScore)
		assert.Contains(t, sig.Metadata, "nvx")
		assert.Contains(t, sig.Metadata, "liquidity")
	}
}

func TestScan_GateRejectsCalmNarrative(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{
		"NARR_001": {Entropy: 0.5},
	}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{"NARR_001": {}}}
	s := newTestScanner(topo, flux, spikingProbe("DXY", "GLD"))

	calm := snapshotBRICS()
	calm.Volatility30d = 0.1
	assert.Empty(t, s.Scan(context.Background(), []domain.NarrativeSnapshot{calm}))
}

func TestScan_GateRequiresSpike(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{"NARR_001": {}}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{"NARR_001": {}}}
	quiet := &stubProbe{readings: map[string]domain.LiquidityReading{
		"DXY": {VolatilitySpike: false},
		"GLD": {VolatilitySpike: false},
	}}
	s := newTestScanner(topo, flux, quiet)

	assert.Empty(t, s.Scan(context.Background(), []domain.NarrativeSnapshot{snapshotBRICS()}))
}

func TestScan_RankedByExpectedProfitDesc(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{
		"NARR_001": {Entropy: 0.5},
		"NARR_002": {Entropy: 0.5},
	}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{
		"NARR_001": {VelocityIndex: 0.7},
		"NARR_002": {VelocityIndex: 0.7},
	}}
	s := newTestScanner(topo, flux, spikingProbe("DXY", "GLD", "NVDA"))

	// BRICS: 0.5×1000×1.0 = 500 per asset. AI: 0.8×1000×1.5 = 1200.
	signals := s.Scan(context.Background(), []domain.NarrativeSnapshot{snapshotBRICS(), snapshotAI()})
	require.Len(t, signals, 3)
	assert.Equal(t, "NVDA", signals[0].FinancialAsset)
	assert.InDelta(t, 1200.0, signals[0].ExpectedProfit, 0.0001)
	// Equal-profit BRICS signals keep their in-cycle order (assets sorted).
	assert.Equal(t, "DXY", signals[1].FinancialAsset)
	assert.Equal(t, "GLD", signals[2].FinancialAsset)
}

func TestScan_AnalyzerFailureSkipsNarrativeOnly(t *testing.T) {
	topo := &stubTopology{
		readings: map[string]domain.TopologyReading{"NARR_002": {Entropy: 0.5}},
		fail:     map[string]bool{"NARR_001": true},
	}
	flux := &stubFlux{readings: map[string]domain.FluxReading{"NARR_002": {VelocityIndex: 0.7}}}
	s := newTestScanner(topo, flux, spikingProbe("NVDA"))

	signals := s.Scan(context.Background(), []domain.NarrativeSnapshot{snapshotBRICS(), snapshotAI()})
	require.Len(t, signals, 1)
	assert.Equal(t, "NARR_002", signals[0].NarrativeID)
}

func TestScan_ProbeFailureSkipsAssetOnly(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{"NARR_001": {}}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{"NARR_001": {}}}
	probe := spikingProbe("GLD")
	probe.fail = map[string]bool{"DXY": true}
	s := newTestScanner(topo, flux, probe)

	signals := s.Scan(context.Background(), []domain.NarrativeSnapshot{snapshotBRICS()})
	require.Len(t, signals, 1)
	assert.Equal(t, "GLD", signals[0].FinancialAsset)
}

func TestScan_NoCorrelatedAssets(t *testing.T) {
	topo := &stubTopology{readings: map[string]domain.TopologyReading{"NARR_009": {}}}
	flux := &stubFlux{readings: map[string]domain.FluxReading{"NARR_009": {}}}
	s := newTestScanner(topo, flux, spikingProbe())

	orphan := domain.NarrativeSnapshot{ID: "NARR_009", Content: "nothing matches", Volatility30d: 0.9}
	assert.Empty(t, s.Scan(context.Background(), []domain.NarrativeSnapshot{orphan}))
}

func TestNVXIndex(t *testing.T) {
	snaps := []domain.NarrativeSnapshot{
		{Volatility30d: 0.4},
		{Volatility30d: 0.6},
	}
	assert.InDelta(t, 50.0, NVXIndex(snaps), 0.0001)
	assert.Equal(t, 0.0, NVXIndex(nil))
}

func TestAnalyzerUnavailableError_Unwrap(t *testing.T) {
	inner := errors.New("timeout")
	err := &AnalyzerUnavailableError{Analyzer: "flux", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "flux")
}
