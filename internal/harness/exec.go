package harness

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// Subprocess is the real Invoker. It spawns exactly one external process per
// call, rooted at the request's working root, and captures bounded output.
type Subprocess struct{}

// NewSubprocess creates the subprocess invoker.
func NewSubprocess() *Subprocess {
	return &Subprocess{}
}

// Invoke runs one harness iteration. The ctx deadline bounds the process;
// an over-deadline child is killed and reported with the timeout sentinel
// exit code rather than as an error.
func (s *Subprocess) Invoke(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	plan, err := BuildInvocation(req.Kind, req.Prompt, req.Model)
	if err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, plan.Argv[0], plan.Argv[1:]...)
	cmd.Dir = req.WorkingRoot
	if len(plan.Env) > 0 {
		cmd.Env = append(cmd.Environ(), plan.Env...)
	}
	if plan.Stdin != "" {
		cmd.Stdin = strings.NewReader(plan.Stdin)
	}

	stdout := newCapWriter(req.CaptureLimit)
	stderr := newCapWriter(req.CaptureLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Give a killed child a moment to flush captured output before Wait
	// returns.
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Kind: req.Kind, Err: err}
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	res := Result{
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
		Duration:        duration,
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = models.ExitTimedOut
		return res, nil
	}

	res.ExitCode = exitCodeFromError(waitErr)
	return res, nil
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return models.ExitSpawnFailed
}
