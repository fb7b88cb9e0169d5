package ports

import (
	"context"

	"github.com/rawelabs/rawe/internal/domain"
)

// ExecutionSink accepts trade packages for execution. Real settlement is
// out of scope; the sink's status decides whether a position opens.
type ExecutionSink interface {
	Execute(ctx context.Context, pkg domain.TradePackage) (domain.ExecutionResult, error)
}
