package emulator

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
)

var _ secondary.CodeExecutor = (*Pool)(nil)

// Pool bounds how many engine processes run at once across all callers.
// Time spent waiting for a slot does not count against the run's time limit.
type Pool struct {
	executor secondary.CodeExecutor
	slots    *semaphore.Weighted
	capacity int64
	load     atomic.Int64
	logger   primary.Logger
}

func NewPool(executor secondary.CodeExecutor, capacity int, logger primary.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		executor: executor,
		slots:    semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		logger:   logger,
	}
}

func (p *Pool) Execute(ctx context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return domain.NewExecutionFailure(domain.FailureCancelled, "cancelled while waiting for an engine slot")
	}
	defer p.slots.Release(1)

	load := p.load.Add(1)
	defer p.load.Add(-1)
	p.logger.Debug("Engine slot acquired", "load", load, "capacity", p.capacity)

	return p.executor.Execute(ctx, req)
}

// Load reports the engines currently running and the pool capacity.
func (p *Pool) Load() (current, capacity int64) {
	return p.load.Load(), p.capacity
}
