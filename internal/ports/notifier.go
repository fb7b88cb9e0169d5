package ports

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// Notifier presents ranked signals and performance reports to the operator.
type Notifier interface {
	// NotifySignals shows the signals produced by a scan cycle, already
	// ranked by expected profit.
	NotifySignals(ctx context.Context, signals []domain.ArbitrageSignal) error

	// NotifyReport renders a performance report.
	NotifyReport(ctx context.Context, report domain.PerformanceReport) error
}
