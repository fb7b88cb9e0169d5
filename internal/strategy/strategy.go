// Package strategy maps signal types to the trading logic that judges them.
// Each strategy produces a reflexive verdict: a win-probability estimate plus
// the strategy's own name, which travels with the position it opens.
package strategy

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// Strategy encapsulates the evaluation logic for one class of signal.
type Strategy interface {
	// Name returns the strategy's unique identifier.
	Name() string

	// Evaluate judges a signal against the current market state and returns
	// the verdict that will gate and size the position.
	Evaluate(ctx context.Context, sig domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error)
}

// Registry holds the available strategies indexed by the signal type they
// handle.
type Registry map[domain.SignalType]Strategy

// NewRegistry returns a registry with the standard strategy per signal type.
func NewRegistry() Registry {
	r := make(Registry)
	r.Register(domain.SignalNarrativeLeads, NarrativeMomentum{})
	r.Register(domain.SignalCapitalLeads, CapitalFade{})
	r.Register(domain.SignalDivergence, DivergenceStraddle{})
	return r
}

// Register binds a strategy to a signal type, replacing any previous binding.
func (r Registry) Register(t domain.SignalType, s Strategy) {
	r[t] = s
}

// ForSignal returns the strategy bound to the signal's type.
func (r Registry) ForSignal(sig domain.ArbitrageSignal) (Strategy, bool) {
	s, ok := r[sig.Type]
	return s, ok
}
