package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rawelabs/rawe/internal/domain"
)

// Executor is a simulated execution sink. Every package with a positive size
// fills immediately under a fresh execution id; zero-size packages are
// rejected.
type Executor struct{}

// NewExecutor creates the simulated sink.
func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Execute(_ context.Context, pkg domain.TradePackage) (domain.ExecutionResult, error) {
	if pkg.Size <= 0 {
		return domain.ExecutionResult{Status: domain.ExecutionRejected}, nil
	}

	id := uuid.New().String()
	slog.Debug("simulated fill",
		"narrative_id", pkg.NarrativeID,
		"asset", pkg.FinancialAsset,
		"direction", pkg.Direction,
		"size", pkg.Size,
		"execution_id", id,
	)
	return domain.ExecutionResult{
		Status:      domain.ExecutionExecuted,
		ExecutionID: id,
		FilledAt:    time.Now().UTC(),
	}, nil
}
