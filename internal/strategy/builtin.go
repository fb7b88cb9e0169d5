package strategy

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// Confidence model parameters shared by the built-in strategies.
const (
	baseConfidence = 0.5

	// strengthWeight converts normalized signal strength into confidence.
	strengthWeight = 0.45

	// riskPenalty discounts confidence for high-entropy narratives.
	riskPenalty = 0.2

	// crowdingPenalty discounts confidence per already-open position.
	crowdingPenalty = 0.02

	// hotMarketNVX marks a regime where narrative volatility is elevated
	// enough that momentum entries get a small boost and fades a haircut.
	hotMarketNVX    = 60.0
	regimeAdjust    = 0.05
	strengthCeiling = 1.0
)

// confidence combines the shared components every built-in strategy uses.
func confidence(sig domain.ArbitrageSignal, state domain.MarketState) float64 {
	strength := sig.Strength
	if strength > strengthCeiling {
		strength = strengthCeiling
	}
	c := baseConfidence + strengthWeight*strength
	c -= riskPenalty * sig.RiskScore
	c -= crowdingPenalty * float64(state.OpenPositions)
	return clamp01(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NarrativeMomentum rides narratives whose story is moving ahead of capital.
// It is the only long-side strategy and prefers hot narrative regimes.
type NarrativeMomentum struct{}

func (NarrativeMomentum) Name() string { return "narrative_momentum" }

func (NarrativeMomentum) Evaluate(_ context.Context, sig domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error) {
	c := confidence(sig, state)
	if state.NVX > hotMarketNVX {
		c = clamp01(c + regimeAdjust)
	}
	return domain.ReflexiveVerdict{Confidence: c, Strategy: "narrative_momentum"}, nil
}

// CapitalFade fades capital that has moved without a story behind it,
// expecting reversion once the narrative fails to materialize. In hot
// regimes the reversion thesis weakens and confidence is cut.
type CapitalFade struct{}

func (CapitalFade) Name() string { return "capital_fade" }

func (CapitalFade) Evaluate(_ context.Context, sig domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error) {
	c := confidence(sig, state)
	if state.NVX > hotMarketNVX {
		c = clamp01(c - regimeAdjust)
	}
	return domain.ReflexiveVerdict{Confidence: c, Strategy: "capital_fade"}, nil
}

// DivergenceStraddle trades complex divergences where neither side clearly
// leads. The ambiguity costs it a flat confidence haircut.
type DivergenceStraddle struct{}

const straddleAmbiguityPenalty = 0.05

func (DivergenceStraddle) Name() string { return "divergence_straddle" }

func (DivergenceStraddle) Evaluate(_ context.Context, sig domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error) {
	c := clamp01(confidence(sig, state) - straddleAmbiguityPenalty)
	return domain.ReflexiveVerdict{Confidence: c, Strategy: "divergence_straddle"}, nil
}
