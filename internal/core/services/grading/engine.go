package grading

import (
	"context"
	"time"

	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
)

// Engine runs a submission against a list of test cases, one engine process
// per test case, strictly in order.
type Engine struct {
	executor  secondary.CodeExecutor
	logger    primary.Logger
	timeLimit time.Duration
}

// NewEngine creates an engine. A zero timeLimit leaves the executor default in place.
func NewEngine(executor secondary.CodeExecutor, logger primary.Logger, timeLimit time.Duration) *Engine {
	return &Engine{
		executor:  executor,
		logger:    logger,
		timeLimit: timeLimit,
	}
}

// WithTimeLimit returns a copy of the engine using d for every run.
func (e *Engine) WithTimeLimit(d time.Duration) *Engine {
	cp := *e
	cp.timeLimit = d
	return &cp
}

// TimeLimit is the per-run limit handed to the executor.
func (e *Engine) TimeLimit() time.Duration {
	return e.timeLimit
}

// Grade always returns a complete report: one result per test case, in input
// order. Engine failures and cancellation turn into ERROR results.
func (e *Engine) Grade(ctx context.Context, cases []*domain.TestCase, source string) *domain.GradeReport {
	results := make([]domain.TestResult, 0, len(cases))

	for i, tc := range cases {
		e.logger.Debug("Running test case", "index", i, "test", tc.Name, "status", domain.TestStatusRunning)

		result := e.gradeOne(ctx, tc, source)

		e.logger.Debug("Test case graded",
			"index", i,
			"test", tc.Name,
			"status", result.Status,
			"earned", result.Earned,
			"points", result.Points,
			"mismatches", len(result.Mismatches))
		results = append(results, result)
	}

	report := domain.NewGradeReport(results)
	e.logger.Info("Grading finished",
		"tests", len(cases),
		"passed", report.Passed,
		"failed", report.Failed,
		"earned", report.EarnedPoints,
		"total", report.TotalPoints)
	return report
}

func (e *Engine) gradeOne(ctx context.Context, tc *domain.TestCase, source string) domain.TestResult {
	res := e.executor.Execute(ctx, domain.NewExecutionRequest(source, tc, e.timeLimit))
	if res == nil {
		return domain.ErrorResult(tc, &domain.ExecutionFailure{
			Kind:    domain.FailureEngineUnavailable,
			Message: "executor returned no result",
		})
	}
	if res.Failed() {
		return domain.ErrorResult(tc, res.Failure)
	}

	ok, mismatches := Compare(tc.ExpectedRegisters, res.Registers, tc.ExpectedMemory, res.Memory)
	if ok {
		return domain.PassResult(tc)
	}
	return domain.FailResult(tc, mismatches)
}
