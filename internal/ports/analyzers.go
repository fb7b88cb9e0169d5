package ports

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// TopologyAnalyzer measures topological stress on a narrative. Called
// synchronously per candidate; callers bound the call with a timeout.
type TopologyAnalyzer interface {
	DetectStress(ctx context.Context, snap domain.NarrativeSnapshot) (domain.TopologyReading, error)
}

// FluxAnalyzer maps the propagation velocity of a narrative.
type FluxAnalyzer interface {
	MapVelocity(ctx context.Context, snap domain.NarrativeSnapshot) (domain.FluxReading, error)
}

// LiquidityProbe checks the liquidity channels of a correlated asset.
type LiquidityProbe interface {
	Probe(ctx context.Context, asset string, correlation float64) (domain.LiquidityReading, error)
}

// ReflexiveArbiter judges whether a scored signal should be traded and with
// which strategy.
type ReflexiveArbiter interface {
	Evaluate(ctx context.Context, signal domain.ArbitrageSignal, state domain.MarketState) (domain.ReflexiveVerdict, error)
}

// NarrativeSource supplies the latest narrative snapshots. A new snapshot
// supersedes the previous one for the same ID.
type NarrativeSource interface {
	// Snapshots returns the current snapshot of every tracked narrative.
	Snapshots(ctx context.Context) ([]domain.NarrativeSnapshot, error)

	// Get returns the current snapshot for one narrative.
	Get(ctx context.Context, id string) (domain.NarrativeSnapshot, bool)
}
