package domain

import "strings"

// AssetCorrelation is one correlated instrument for a narrative keyword.
type AssetCorrelation struct {
	Symbol      string  `yaml:"symbol"`
	Correlation float64 `yaml:"correlation"` // [-1, 1]
}

// CorrelationRule maps narrative content keywords to correlated assets.
// A rule matches when any of its keywords appears in the narrative content.
type CorrelationRule struct {
	Keywords []string           `yaml:"keywords"`
	Assets   []AssetCorrelation `yaml:"assets"`
}

// CorrelationTable is the static narrative→asset mapping supplied as
// configuration. Lookup is pure; the table is never mutated at runtime.
type CorrelationTable struct {
	Rules []CorrelationRule `yaml:"rules"`
}

// Lookup returns the union of assets from every rule whose keywords match
// the content. When several rules map the same symbol, the last match wins.
func (t CorrelationTable) Lookup(content string) map[string]float64 {
	out := make(map[string]float64)
	for _, rule := range t.Rules {
		if !rule.matches(content) {
			continue
		}
		for _, a := range rule.Assets {
			out[a.Symbol] = a.Correlation
		}
	}
	return out
}

func (r CorrelationRule) matches(content string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// DefaultCorrelationTable is the built-in mapping used when the config file
// supplies no rules.
func DefaultCorrelationTable() CorrelationTable {
	return CorrelationTable{Rules: []CorrelationRule{
		{
			Keywords: []string{"BRICS", "dollar"},
			Assets: []AssetCorrelation{
				{Symbol: "DXY", Correlation: -0.8},
				{Symbol: "GLD", Correlation: 0.7},
				{Symbol: "CNY", Correlation: 0.6},
			},
		},
		{
			Keywords: []string{"AI", "consciousness"},
			Assets: []AssetCorrelation{
				{Symbol: "NVDA", Correlation: 0.9},
				{Symbol: "MSFT", Correlation: 0.7},
				{Symbol: "GOOGL", Correlation: 0.6},
			},
		},
		{
			Keywords: []string{"collapse", "corrupt"},
			Assets: []AssetCorrelation{
				{Symbol: "VIX", Correlation: 0.8},
				{Symbol: "TLT", Correlation: 0.5},
				{Symbol: "BTC", Correlation: 0.4},
			},
		},
	}}
}
