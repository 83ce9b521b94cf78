// Package harness invokes external coding-agent CLIs as subprocesses and
// captures their outcome.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// Request describes one harness invocation.
type Request struct {
	// Kind selects the harness executable.
	Kind models.HarnessKind

	// Prompt is the text sent to the harness. Required.
	Prompt string

	// Model optionally overrides the harness's default model.
	Model string

	// WorkingRoot is the working directory of the spawned process.
	WorkingRoot string

	// CaptureLimit bounds captured stdout/stderr in bytes. Zero means the
	// default limit.
	CaptureLimit int
}

// Validate checks the request.
func (r Request) Validate() error {
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if r.Prompt == "" {
		return models.ErrEmptyPrompt
	}
	return models.ValidateWorkingRoot(r.WorkingRoot)
}

// Result is the captured outcome of one invocation. A non-zero exit code is
// data, not an error.
type Result struct {
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	ExitCode        int
	Duration        time.Duration

	// TimedOut is set when the process was killed at the ctx deadline. The
	// exit code is then models.ExitTimedOut.
	TimedOut bool
}

// Invoker runs one harness iteration. Implementations spawn at most one
// process per call. The only error condition is *SpawnError; everything the
// process itself does comes back in the Result.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
}

// SpawnError means the harness executable could not be located or started.
// Distinct from a non-zero exit, which is a successful invocation with
// failure content.
type SpawnError struct {
	Kind models.HarnessKind
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s harness: %v", e.Kind, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
