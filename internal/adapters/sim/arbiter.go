package sim

import (
	"context"
	"fmt"

	"github.com/rawelabs/rawe/internal/domain"
	"github.com/rawelabs/rawe/internal/strategy"
)

// Arbiter judges signals by dispatching them to the strategy registered for
// their type.
type Arbiter struct {
	registry strategy.Registry
}

// NewArbiter creates an arbiter over the given registry. A nil registry gets
// the standard built-in strategies.
func NewArbiter(registry strategy.Registry) *Arbiter {
	if registry == nil {
		registry = strategy.NewRegistry()
	}
	return &Arbiter{registry: registry}
}

// Evaluate runs the signal through its type's strategy.
func (a *Arbiter) Evaluate(ctx context.Context, sig domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error) {
	strat, ok := a.registry.ForSignal(sig)
	if !ok {
		return domain.ReflexiveVerdict{}, fmt.Errorf("sim: no strategy for signal type %q", sig.Type)
	}
	return strat.Evaluate(ctx, sig, state)
}
