// Package notify renders scan output and performance reports for the
// operator. Console is the only implementation; it prints either a compact
// one-liner per cycle or full tables.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/rawelabs/rawe/internal/domain"
)

// compactSignals caps how many signals the one-line mode lists.
const compactSignals = 4

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier writing to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifySignals prints the cycle's ranked signals in the configured mode.
func (c *Console) NotifySignals(_ context.Context, signals []domain.ArbitrageSignal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no tradeable divergences\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printSignalTable(signals)
	} else {
		c.printSignalCompact(signals)
	}
	return nil
}

// printSignalCompact prints the essentials in one line.
func (c *Console) printSignalCompact(signals []domain.ArbitrageSignal) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals", now, len(signals))

	shown := 0
	for _, sig := range signals {
		if shown >= compactSignals {
			break
		}
		fmt.Fprintf(&sb, " | %s %s exp$%.0f risk%.2f",
			sig.SubjectKey(), typeIcon(sig.Type), sig.ExpectedProfit, sig.RiskScore)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printSignalTable prints the full ranked table.
func (c *Console) printSignalTable(signals []domain.ArbitrageSignal) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d tradeable divergences\n", now, len(signals))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Narrative", "Asset", "Type", "Strength", "ExpProfit", "Risk")

	for i, sig := range signals {
		table.Append(
			fmt.Sprintf("%d", i+1),
			sig.NarrativeID,
			sig.FinancialAsset,
			string(sig.Type),
			fmt.Sprintf("%.3f", sig.Strength),
			fmt.Sprintf("$%.2f", sig.ExpectedProfit),
			fmt.Sprintf("%.2f", sig.RiskScore),
		)
	}

	table.Render()
	fmt.Fprintln(c.out, "  Strength = topology signal × memetic impact | Risk = topology entropy")
}

// NotifyReport renders a performance report.
func (c *Console) NotifyReport(_ context.Context, report domain.PerformanceReport) error {
	fmt.Fprintf(c.out, "\n=== PERFORMANCE %s ===\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	table := tablewriter.NewWriter(c.out)
	table.Header("Realized", "Unrealized", "Total", "Open", "Closed", "Win rate")
	table.Append(
		fmt.Sprintf("$%.2f", report.RealizedPnL),
		fmt.Sprintf("$%.2f", report.UnrealizedPnL),
		fmt.Sprintf("$%.2f", report.TotalPnL),
		fmt.Sprintf("%d", report.ActiveCount),
		fmt.Sprintf("%d", report.ClosedCount),
		fmt.Sprintf("%.0f%%", report.WinRate*100),
	)
	table.Render()

	if len(report.Exposure) > 0 {
		categories := make([]string, 0, len(report.Exposure))
		for cat := range report.Exposure {
			categories = append(categories, cat)
		}
		sort.Strings(categories)

		fmt.Fprintln(c.out, "  Exposure by theme:")
		for _, cat := range categories {
			fmt.Fprintf(c.out, "    %-15s $%.2f\n", cat, report.Exposure[cat])
		}
	}
	return nil
}

func typeIcon(t domain.SignalType) string {
	switch t {
	case domain.SignalNarrativeLeads:
		return "↑N"
	case domain.SignalCapitalLeads:
		return "↑C"
	default:
		return "≠"
	}
}
