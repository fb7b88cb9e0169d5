package domain

import "time"

// Position sizing policy constants.
const (
	// rewardRiskRatio is the assumed reward/risk ratio feeding the Kelly
	// fraction. Fixed at 2:1.
	rewardRiskRatio = 2.0

	// maxKellyFraction caps the capital committed to a single position.
	maxKellyFraction = 0.25

	// MinExecutionConfidence is the arbiter confidence floor below which a
	// signal is not executed.
	MinExecutionConfidence = 0.7

	// ProfitTargetFraction closes a position once unrealized P&L exceeds
	// this fraction of its size.
	ProfitTargetFraction = 0.2
)

// Direction of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// DirectionFor maps the signal type to a trade direction: narratives that
// lead capital are bought, everything else is faded.
func DirectionFor(t SignalType) Direction {
	if t == SignalNarrativeLeads {
		return DirectionLong
	}
	return DirectionShort
}

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason records why a position was exited.
type CloseReason string

const (
	CloseNarrativeCollapse CloseReason = "narrative_collapse"
	CloseProfitTarget      CloseReason = "profit_target"
	CloseNone              CloseReason = "none"
)

// Position is an open trade on a narrative/asset subject. Exclusively owned
// and mutated by the position manager until closed.
type Position struct {
	ID             string // subject key
	NarrativeID    string
	FinancialAsset string
	Direction      Direction
	Size           float64
	Strategy       string
	EntryTime      time.Time
	Status         PositionStatus
	ExecutionID    string
}

// ClosedPosition is an immutable ledger entry for a finished position.
type ClosedPosition struct {
	Position
	PnL      float64
	Reason   CloseReason
	ClosedAt time.Time
}

// KellyFraction computes the risk-optimal bet fraction for a win probability
// at the fixed 2:1 reward/risk ratio, clamped to [0, maxKellyFraction].
func KellyFraction(confidence float64) float64 {
	kelly := (confidence*rewardRiskRatio - (1 - confidence)) / rewardRiskRatio
	if kelly < 0 {
		return 0
	}
	if kelly > maxKellyFraction {
		return maxKellyFraction
	}
	return kelly
}

// PositionSize converts arbiter confidence and signal risk into a position
// size: capped Kelly fraction, discounted by risk, applied to base capital.
func PositionSize(confidence, riskScore, baseCapital float64) float64 {
	return KellyFraction(confidence) * (1 - riskScore) * baseCapital
}

// MarkToModel computes the synthetic unrealized P&L of a position from the
// narrative's current volatility, the hold time in hours, and a drift factor.
// There is no real price feed; the mark is a model, not an observation.
func MarkToModel(size, volatility30d, hoursHeld, drift float64) float64 {
	return size * volatility30d * hoursHeld * drift
}

// PerformanceReport aggregates P&L and exposure across the book.
type PerformanceReport struct {
	GeneratedAt   time.Time
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	ActiveCount   int
	ClosedCount   int
	WinRate       float64            // fraction of closed positions with pnl > 0
	Exposure      map[string]float64 // category -> open size
}
