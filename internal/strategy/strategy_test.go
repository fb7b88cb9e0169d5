package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawelabs/rawe/internal/domain"
)

func evaluate(t *testing.T, s Strategy, sig domain.ArbitrageSignal, state domain.MarketState) domain.ReflexiveVerdict {
	t.Helper()
	verdict, err := s.Evaluate(context.Background(), sig, state)
	require.NoError(t, err)
	return verdict
}

func TestNewRegistry_CoversEverySignalType(t *testing.T) {
	r := NewRegistry()
	for _, st := range []domain.SignalType{
		domain.SignalNarrativeLeads,
		domain.SignalCapitalLeads,
		domain.SignalDivergence,
	} {
		s, ok := r.ForSignal(domain.ArbitrageSignal{Type: st})
		require.True(t, ok, string(st))
		assert.NotEmpty(t, s.Name())
	}
}

func TestForSignal_UnknownType(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ForSignal(domain.ArbitrageSignal{Type: "sideways"})
	assert.False(t, ok)
}

func TestRegister_Replaces(t *testing.T) {
	r := NewRegistry()
	r.Register(domain.SignalDivergence, NarrativeMomentum{})
	s, ok := r.ForSignal(domain.ArbitrageSignal{Type: domain.SignalDivergence})
	require.True(t, ok)
	assert.Equal(t, "narrative_momentum", s.Name())
}

func TestConfidence_StrengthRaisesRiskLowers(t *testing.T) {
	strong := domain.ArbitrageSignal{Strength: 0.9, RiskScore: 0.1}
	weak := domain.ArbitrageSignal{Strength: 0.1, RiskScore: 0.9}

	vStrong := evaluate(t, NarrativeMomentum{}, strong, domain.MarketState{})
	vWeak := evaluate(t, NarrativeMomentum{}, weak, domain.MarketState{})

	assert.Greater(t, vStrong.Confidence, vWeak.Confidence)
	// 0.5 + 0.45×0.9 - 0.2×0.1 = 0.885
	assert.InDelta(t, 0.885, vStrong.Confidence, 0.0001)
}

func TestConfidence_CrowdingPenalty(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 0.5, RiskScore: 0.2}
	empty := evaluate(t, CapitalFade{}, sig, domain.MarketState{OpenPositions: 0})
	crowded := evaluate(t, CapitalFade{}, sig, domain.MarketState{OpenPositions: 5})

	assert.InDelta(t, 0.1, empty.Confidence-crowded.Confidence, 0.0001)
}

func TestConfidence_StrengthCapped(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 3.0}
	v := evaluate(t, NarrativeMomentum{}, sig, domain.MarketState{})
	// Strength clamps to 1.0: 0.5 + 0.45 = 0.95
	assert.InDelta(t, 0.95, v.Confidence, 0.0001)
}

func TestNarrativeMomentum_HotRegimeBoost(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 0.4, RiskScore: 0.3}
	calm := evaluate(t, NarrativeMomentum{}, sig, domain.MarketState{NVX: 40})
	hot := evaluate(t, NarrativeMomentum{}, sig, domain.MarketState{NVX: 80})

	assert.InDelta(t, 0.05, hot.Confidence-calm.Confidence, 0.0001)
	assert.Equal(t, "narrative_momentum", hot.Strategy)
}

func TestCapitalFade_HotRegimeHaircut(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 0.4, RiskScore: 0.3}
	calm := evaluate(t, CapitalFade{}, sig, domain.MarketState{NVX: 40})
	hot := evaluate(t, CapitalFade{}, sig, domain.MarketState{NVX: 80})

	assert.InDelta(t, 0.05, calm.Confidence-hot.Confidence, 0.0001)
}

func TestDivergenceStraddle_AmbiguityPenalty(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 0.4, RiskScore: 0.3}
	straddle := evaluate(t, DivergenceStraddle{}, sig, domain.MarketState{})
	fade := evaluate(t, CapitalFade{}, sig, domain.MarketState{})

	assert.InDelta(t, 0.05, fade.Confidence-straddle.Confidence, 0.0001)
	assert.Equal(t, "divergence_straddle", straddle.Strategy)
}

func TestConfidence_ClampedToUnitInterval(t *testing.T) {
	sig := domain.ArbitrageSignal{Strength: 0.0, RiskScore: 1.0}
	v := evaluate(t, CapitalFade{}, sig, domain.MarketState{OpenPositions: 50})
	assert.GreaterOrEqual(t, v.Confidence, 0.0)

	v = evaluate(t, NarrativeMomentum{}, domain.ArbitrageSignal{Strength: 1.0}, domain.MarketState{NVX: 90})
	assert.LessOrEqual(t, v.Confidence, 1.0)
}
