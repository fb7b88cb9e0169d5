package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawelabs/rawe/internal/domain"
)

func sampleSignals() []domain.ArbitrageSignal {
	return []domain.ArbitrageSignal{
		{
			NarrativeID:    "NARR_002",
			FinancialAsset: "NVDA",
			Type:           domain.SignalDivergence,
			Strength:       0.42,
			ExpectedProfit: 1200,
			RiskScore:      0.5,
		},
		{
			NarrativeID:    "NARR_001",
			FinancialAsset: "GLD",
			Type:           domain.SignalNarrativeLeads,
			Strength:       0.3,
			ExpectedProfit: 500,
			RiskScore:      0.8,
		},
	}
}

func TestNotifySignals_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifySignals(context.Background(), sampleSignals()))

	out := buf.String()
	assert.Contains(t, out, "2 signals")
	assert.Contains(t, out, "NARR_002_NVDA")
	assert.Contains(t, out, "NARR_001_GLD")
	assert.Contains(t, out, "exp$1200")
}

func TestNotifySignals_Table(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	require.NoError(t, c.NotifySignals(context.Background(), sampleSignals()))

	out := buf.String()
	assert.Contains(t, out, "2 tradeable divergences")
	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "divergence")
	assert.Contains(t, out, "$1200.00")
	assert.Contains(t, out, "narrative_leads")
}

func TestNotifySignals_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifySignals(context.Background(), nil))
	assert.Contains(t, buf.String(), "no tradeable divergences")
}

func TestNotifyReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	report := domain.PerformanceReport{
		GeneratedAt:   time.Date(2026, 7, 1, 10, 30, 0, 0, time.UTC),
		RealizedPnL:   150.5,
		UnrealizedPnL: -20.25,
		TotalPnL:      130.25,
		ActiveCount:   2,
		ClosedCount:   4,
		WinRate:       0.75,
		Exposure: map[string]float64{
			domain.CategoryGeopolitical: 2000,
			domain.CategoryTechnology:   1500,
		},
	}
	require.NoError(t, c.NotifyReport(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "PERFORMANCE 2026-07-01")
	assert.Contains(t, out, "$150.50")
	assert.Contains(t, out, "$-20.25")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "geopolitical")
	assert.Contains(t, out, "technology")
}
