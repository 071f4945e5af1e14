package domain

import (
	"fmt"
	"time"
)

// ExecutionRequest is everything the engine needs for one isolated run
type ExecutionRequest struct {
	Source           string
	InitialRegisters RegisterState
	InitialMemory    MemoryState
	CheckMemory      []Address
	// TimeLimit overrides the executor default when positive.
	TimeLimit time.Duration
}

// NewExecutionRequest builds the request for running source against a test case.
func NewExecutionRequest(source string, tc *TestCase, limit time.Duration) *ExecutionRequest {
	return &ExecutionRequest{
		Source:           source,
		InitialRegisters: tc.InitialRegisters,
		InitialMemory:    tc.InitialMemory,
		CheckMemory:      tc.CheckMemory(),
		TimeLimit:        limit,
	}
}

// FailureKind classifies why an engine run produced no usable state.
type FailureKind string

const (
	FailureTimeout           FailureKind = "TIMEOUT"
	FailureRuntime           FailureKind = "RUNTIME_ERROR"
	FailureMalformedOutput   FailureKind = "MALFORMED_OUTPUT"
	FailureEngineUnavailable FailureKind = "ENGINE_UNAVAILABLE"
	FailureCancelled         FailureKind = "CANCELLED"
)

// ExecutionFailure carries the diagnostic of an abnormal run.
type ExecutionFailure struct {
	Kind    FailureKind
	Message string
}

func (f *ExecutionFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// ExecutionResult is either the final machine state or a failure, never both.
type ExecutionResult struct {
	Registers RegisterState
	Memory    MemoryState
	Failure   *ExecutionFailure
	Duration  time.Duration
}

func NewExecutionSuccess(regs RegisterState, mem MemoryState) *ExecutionResult {
	if regs == nil {
		regs = RegisterState{}
	}
	if mem == nil {
		mem = MemoryState{}
	}
	return &ExecutionResult{Registers: regs, Memory: mem}
}

func NewExecutionFailure(kind FailureKind, format string, args ...interface{}) *ExecutionResult {
	return &ExecutionResult{
		Failure: &ExecutionFailure{Kind: kind, Message: fmt.Sprintf(format, args...)},
	}
}

// Failed reports whether the run ended abnormally.
func (r *ExecutionResult) Failed() bool {
	return r.Failure != nil
}
