package emulator

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/core/ports/primary"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/domain"
)

var _ secondary.CodeExecutor = (*SubprocessExecutor)(nil)

const maxDiagnosticLen = 2048

// SubprocessExecutor runs every request in a fresh engine process inside its
// own scratch directory.
type SubprocessExecutor struct {
	cfg    *config.EmulatorConfig
	logger primary.Logger
}

func NewSubprocessExecutor(cfg *config.EmulatorConfig, logger primary.Logger) *SubprocessExecutor {
	return &SubprocessExecutor{
		cfg:    cfg,
		logger: logger,
	}
}

// Execute implements secondary.CodeExecutor.
func (e *SubprocessExecutor) Execute(ctx context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult {
	start := time.Now()
	res := e.execute(ctx, req)
	res.Duration = time.Since(start)

	if res.Failed() {
		e.logger.Warn("Engine run failed", "kind", res.Failure.Kind, "message", res.Failure.Message, "duration", res.Duration)
	} else {
		e.logger.Debug("Engine run finished", "registers", len(res.Registers), "memory", len(res.Memory), "duration", res.Duration)
	}
	return res
}

func (e *SubprocessExecutor) execute(ctx context.Context, req *domain.ExecutionRequest) *domain.ExecutionResult {
	if err := ctx.Err(); err != nil {
		return domain.NewExecutionFailure(domain.FailureCancelled, "run cancelled before start: %v", err)
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = e.cfg.Timeout
	}
	if limit <= 0 {
		limit = config.DefaultEmulatorTimeout
	}
	maxOutput := e.cfg.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = config.DefaultMaxOutputBytes
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return domain.NewExecutionFailure(domain.FailureRuntime, "%v", err)
	}

	scratch, err := os.MkdirTemp(e.cfg.ScratchDir, "mips-run-")
	if err != nil {
		return domain.NewExecutionFailure(domain.FailureEngineUnavailable, "failed to create scratch directory: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			e.logger.Error("Failed to remove scratch directory", "dir", scratch, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	stdout := newLimitedBuffer(maxOutput)
	stderr := newLimitedBuffer(maxOutput)

	cmd := exec.CommandContext(runCtx, e.cfg.Path, e.cfg.Args...)
	cmd.Dir = scratch
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + scratch,
		"TMPDIR=" + scratch,
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = e.cfg.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = config.DefaultEmulatorWaitDelay
	}
	setupProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return domain.NewExecutionFailure(domain.FailureCancelled, "run cancelled: %v", ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return domain.NewExecutionFailure(domain.FailureEngineUnavailable, "engine %q not runnable: %v", e.cfg.Path, err)
		}
		return domain.NewExecutionFailure(domain.FailureEngineUnavailable, "failed to start engine: %v", err)
	}
	// Stragglers the engine forked must not outlive the run. The group is
	// signalled while the exited leader is still unreaped, so its pid cannot
	// belong to anyone else yet.
	if awaitExit(cmd) {
		_ = killProcessGroup(cmd)
	}
	runErr := cmd.Wait()

	if runErr != nil {
		switch {
		case ctx.Err() != nil:
			return domain.NewExecutionFailure(domain.FailureCancelled, "run cancelled: %v", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return domain.NewExecutionFailure(domain.FailureTimeout, "execution exceeded %s", limit)
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			msg := diagnostic(stderr.Bytes())
			if msg == "" {
				msg = diagnostic(stdout.Bytes())
			}
			return domain.NewExecutionFailure(domain.FailureRuntime, "engine %s: %s", exitErr.ProcessState.String(), msg)
		}
		if errors.Is(runErr, exec.ErrWaitDelay) {
			return domain.NewExecutionFailure(domain.FailureRuntime, "engine left output streams open after exit")
		}
		return domain.NewExecutionFailure(domain.FailureRuntime, "failed to wait for engine: %v", runErr)
	}

	if stdout.Truncated() {
		return domain.NewExecutionFailure(domain.FailureMalformedOutput, "engine output exceeded %d bytes", maxOutput)
	}

	regs, mem, engineErr, err := decodeResponse(stdout.Bytes())
	if err != nil {
		return domain.NewExecutionFailure(domain.FailureMalformedOutput, "%v", err)
	}
	if engineErr != "" {
		return domain.NewExecutionFailure(domain.FailureRuntime, "%s", diagnostic([]byte(engineErr)))
	}
	return domain.NewExecutionSuccess(regs, mem)
}

func diagnostic(b []byte) string {
	msg := strings.TrimSpace(string(b))
	if len(msg) > maxDiagnosticLen {
		msg = msg[:maxDiagnosticLen] + "..."
	}
	return msg
}
