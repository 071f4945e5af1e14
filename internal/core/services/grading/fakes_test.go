package grading

import (
	"context"
	"sync"

	"gitlab.com/mips-autograder.net/internal/domain"
)

// scriptedExecutor returns canned results keyed by call index and records
// every request it sees.
type scriptedExecutor struct {
	mu       sync.Mutex
	results  []*domain.ExecutionResult
	requests []*domain.ExecutionRequest
	onCall   func(i int)
}

func (f *scriptedExecutor) Execute(ctx context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult {
	f.mu.Lock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(i)
	}
	if err := ctx.Err(); err != nil {
		return domain.NewExecutionFailure(domain.FailureCancelled, "%v", err)
	}
	if i >= len(f.results) {
		return domain.NewExecutionSuccess(nil, nil)
	}
	return f.results[i]
}

func (f *scriptedExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testCase(name string, points int, expected map[string]int64) *domain.TestCase {
	tc, err := domain.TestCaseSpec{Name: name, Points: points, ExpectedRegisters: expected}.Build("lab")
	if err != nil {
		panic(err)
	}
	return tc
}

func regs(pairs map[string]int64) domain.RegisterState {
	state, err := domain.ParseRegisterState(pairs)
	if err != nil {
		panic(err)
	}
	return state
}
