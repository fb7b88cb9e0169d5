package domain

import "time"

// TradePackage is the execution handoff for an accepted signal.
type TradePackage struct {
	Timestamp      time.Time
	NarrativeID    string
	FinancialAsset string
	Direction      Direction
	Size           float64
	Strategy       string
	Metadata       map[string]any
}

// Execution statuses returned by the execution sink.
const (
	ExecutionExecuted = "executed"
	ExecutionRejected = "rejected"
)

// ExecutionResult is the sink's response to a trade package.
type ExecutionResult struct {
	Status      string
	ExecutionID string
	FilledAt    time.Time
}

// Executed reports whether the trade was accepted by the sink.
func (r ExecutionResult) Executed() bool {
	return r.Status == ExecutionExecuted
}
