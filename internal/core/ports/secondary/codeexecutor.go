package secondary

import (
	"context"

	"gitlab.com/mips-autograder.net/internal/domain"
)

type CodeExecutor interface {
	// Execute runs the source once in a fresh engine instance. Failures are
	// reported in the result, never as an error.
	Execute(ctx context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult
}
