package domain

import "time"

// SignalType classifies which side of the narrative/capital divergence is
// leading the other.
type SignalType string

const (
	SignalNarrativeLeads SignalType = "narrative_leads" // narrative change preceding capital
	SignalCapitalLeads   SignalType = "capital_leads"   // capital movement preceding narrative
	SignalDivergence     SignalType = "divergence"      // complex divergence pattern
)

// Valid reports whether t is one of the known signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalNarrativeLeads, SignalCapitalLeads, SignalDivergence:
		return true
	}
	return false
}

// ArbitrageSignal is a scored trade candidate pairing a narrative with a
// correlated financial asset. Immutable once produced.
type ArbitrageSignal struct {
	Timestamp      time.Time
	NarrativeID    string
	FinancialAsset string
	Type           SignalType
	Strength       float64 // signal_strength × memetic_impact, >= 0
	ExpectedProfit float64
	RiskScore      float64 // topology entropy, [0,1]

	// Metadata carries the raw analyzer readings that produced the signal.
	// Recognized keys: "nvx", "topology", "flux", "liquidity".
	Metadata map[string]any
}

// SubjectKey is the composite identifier correlating votes, signals, and
// positions for one narrative/asset pair.
func (s ArbitrageSignal) SubjectKey() string {
	return SubjectKey(s.NarrativeID, s.FinancialAsset)
}

// SubjectKey builds the composite narrative/asset identifier.
func SubjectKey(narrativeID, asset string) string {
	return narrativeID + "_" + asset
}

// TopologyReading is the output of the topological stress analyzer.
type TopologyReading struct {
	Entropy        float64 `json:"entropy"`
	SignalStrength float64 `json:"signal_strength"`
}

// FluxReading is the output of the narrative flux analyzer.
type FluxReading struct {
	VelocityIndex float64 `json:"velocity_index"`
	MemeticImpact float64 `json:"memetic_impact"`
}

// LiquidityReading is the output of the liquidity channel probe.
type LiquidityReading struct {
	VolatilitySpike bool `json:"volatility_spike"`
	TargetZone      bool `json:"target_zone"`
}

// MarketState is the aggregate context handed to the reflexive arbiter.
type MarketState struct {
	NVX           float64 // narrative volatility index across all tracked narratives
	OpenPositions int
}

// ReflexiveVerdict is the arbiter's judgement on a signal.
type ReflexiveVerdict struct {
	Confidence float64 // win probability estimate, [0,1]
	Strategy   string
}

// SignalMessage is the wire format for one broadcast vote on the signal bus.
type SignalMessage struct {
	NarrativeID    string     `json:"narrative_id"`
	FinancialAsset string     `json:"financial_asset"`
	SignalType     SignalType `json:"signal_type"`
}

// ConsensusEvent records a confirmed threshold crossing for a subject.
// Votes is the full vote list accumulated for the subject, in arrival order.
type ConsensusEvent struct {
	SubjectKey string       `json:"subject_key"`
	Votes      []SignalType `json:"votes"`
}

// ConsensusAction is the wire format published downstream on consensus.
type ConsensusAction struct {
	Action     string `json:"action"`
	SubjectKey string `json:"subject_key"`
}
