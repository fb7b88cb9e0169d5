package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- IsTradeableDivergence ---

func TestIsTradeableDivergence_Qualifies(t *testing.T) {
	snap := NarrativeSnapshot{Volatility30d: 0.5}
	liq := LiquidityReading{VolatilitySpike: true}
	assert.True(t, IsTradeableDivergence(snap, liq))
}

func TestIsTradeableDivergence_VolatilityAtFloor(t *testing.T) {
	// The gate is strict: exactly 0.3 does not qualify.
	snap := NarrativeSnapshot{Volatility30d: 0.3}
	liq := LiquidityReading{VolatilitySpike: true}
	assert.False(t, IsTradeableDivergence(snap, liq))
}

func TestIsTradeableDivergence_NoSpike(t *testing.T) {
	snap := NarrativeSnapshot{Volatility30d: 0.9}
	liq := LiquidityReading{VolatilitySpike: false}
	assert.False(t, IsTradeableDivergence(snap, liq))
}

// --- ClassifySignalType ---

func TestClassifySignalType_NarrativeLeads(t *testing.T) {
	topo := TopologyReading{Entropy: 0.8}
	flux := FluxReading{VelocityIndex: 1.2}
	assert.Equal(t, SignalNarrativeLeads, ClassifySignalType(topo, flux))
}

func TestClassifySignalType_CapitalLeads(t *testing.T) {
	topo := TopologyReading{Entropy: 0.2}
	flux := FluxReading{VelocityIndex: 0.4}
	assert.Equal(t, SignalCapitalLeads, ClassifySignalType(topo, flux))
}

func TestClassifySignalType_MixedReadingsAreDivergence(t *testing.T) {
	// High entropy with slow velocity falls through to divergence.
	topo := TopologyReading{Entropy: 0.8}
	flux := FluxReading{VelocityIndex: 0.4}
	assert.Equal(t, SignalDivergence, ClassifySignalType(topo, flux))
}

func TestClassifySignalType_BoundariesAreDivergence(t *testing.T) {
	// Thresholds themselves never classify as leading.
	topo := TopologyReading{Entropy: 0.7}
	flux := FluxReading{VelocityIndex: 1.0}
	assert.Equal(t, SignalDivergence, ClassifySignalType(topo, flux))
}

// --- ExpectedProfit ---

func TestExpectedProfit_TargetZoneAndRating(t *testing.T) {
	// 0.5 × 1000 × 1.5 (target zone) × 1.2 (BBB) = 900
	snap := NarrativeSnapshot{Volatility30d: 0.5, CoherenceRating: RatingBBB}
	liq := LiquidityReading{TargetZone: true}
	assert.InDelta(t, 900.0, ExpectedProfit(snap, liq), 0.001)
}

func TestExpectedProfit_NoTargetZone(t *testing.T) {
	snap := NarrativeSnapshot{Volatility30d: 0.5, CoherenceRating: RatingA}
	liq := LiquidityReading{TargetZone: false}
	assert.InDelta(t, 500.0, ExpectedProfit(snap, liq), 0.001)
}

func TestExpectedProfit_StableNarrativeDiscounted(t *testing.T) {
	// AAA halves the expectation: stable stories move markets less.
	snap := NarrativeSnapshot{Volatility30d: 1.0, CoherenceRating: RatingAAA}
	liq := LiquidityReading{}
	assert.InDelta(t, 500.0, ExpectedProfit(snap, liq), 0.001)
}

func TestExpectedProfit_UnknownRatingIsNeutral(t *testing.T) {
	snap := NarrativeSnapshot{Volatility30d: 0.4, CoherenceRating: "C"}
	liq := LiquidityReading{}
	assert.InDelta(t, 400.0, ExpectedProfit(snap, liq), 0.001)
}

// --- SignalStrength ---

func TestSignalStrength_Product(t *testing.T) {
	topo := TopologyReading{SignalStrength: 0.8}
	flux := FluxReading{MemeticImpact: 0.5}
	assert.InDelta(t, 0.4, SignalStrength(topo, flux), 0.001)
}

func TestSignalStrength_ZeroImpact(t *testing.T) {
	topo := TopologyReading{SignalStrength: 0.9}
	assert.Equal(t, 0.0, SignalStrength(topo, FluxReading{}))
}
