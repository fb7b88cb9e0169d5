package domain

// Signal classification thresholds. Fixed policy constants, not learned.
const (
	entropyHighThreshold  = 0.7
	entropyLowThreshold   = 0.3
	velocityHighThreshold = 1.0
	velocityLowThreshold  = 0.5

	// minTradeableVolatility is the floor of 30-day narrative volatility
	// below which no divergence is worth trading.
	minTradeableVolatility = 0.3

	// profitPerVolatilityUnit converts narrative volatility into a base
	// expected-profit figure in account currency.
	profitPerVolatilityUnit = 1000.0

	// targetZoneMultiplier boosts expected profit when the liquidity probe
	// reports the asset inside a target zone.
	targetZoneMultiplier = 1.5
)

// IsTradeableDivergence is the sole admission gate for a narrative/asset pair:
// high narrative volatility combined with a liquidity volatility spike.
// Non-qualifying pairs are dropped silently, not errored.
func IsTradeableDivergence(snap NarrativeSnapshot, liquidity LiquidityReading) bool {
	return snap.Volatility30d > minTradeableVolatility && liquidity.VolatilitySpike
}

// ClassifySignalType decides which side of the divergence is leading.
func ClassifySignalType(topology TopologyReading, flux FluxReading) SignalType {
	switch {
	case topology.Entropy > entropyHighThreshold && flux.VelocityIndex > velocityHighThreshold:
		return SignalNarrativeLeads
	case topology.Entropy < entropyLowThreshold && flux.VelocityIndex < velocityLowThreshold:
		return SignalCapitalLeads
	default:
		return SignalDivergence
	}
}

// ExpectedProfit estimates the profit of trading the divergence: base profit
// proportional to narrative volatility, boosted in a liquidity target zone,
// scaled by the coherence-rating multiplier.
func ExpectedProfit(snap NarrativeSnapshot, liquidity LiquidityReading) float64 {
	profit := snap.Volatility30d * profitPerVolatilityUnit
	if liquidity.TargetZone {
		profit *= targetZoneMultiplier
	}
	return profit * snap.CoherenceRating.Multiplier()
}

// SignalStrength combines topological stress with memetic impact.
func SignalStrength(topology TopologyReading, flux FluxReading) float64 {
	return topology.SignalStrength * flux.MemeticImpact
}
