package harness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// StubStep is one pre-programmed invocation outcome.
type StubStep struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Delay simulates a slow harness. A delay past the ctx deadline yields a
	// timed-out result, the same shape the subprocess invoker produces.
	Delay time.Duration

	// SpawnFail simulates a harness executable that cannot be started.
	SpawnFail bool
}

// Stub replays a script of results with no process or network I/O. It is the
// only invoker permitted in automated tests.
type Stub struct {
	mu    sync.Mutex
	steps []StubStep
	calls int
}

// NewStub creates a stub invoker that replays the given steps in order.
func NewStub(steps ...StubStep) *Stub {
	return &Stub{steps: steps}
}

// Calls reports how many invocations the stub has served.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Invoke returns the next scripted result. When the script is exhausted the
// last step repeats, so "always continue" harnesses need only one step.
func (s *Stub) Invoke(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	if len(s.steps) == 0 {
		s.mu.Unlock()
		return Result{}, &SpawnError{Kind: req.Kind, Err: errors.New("stub has no scripted steps")}
	}
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	step := s.steps[idx]
	s.calls++
	s.mu.Unlock()

	if step.SpawnFail {
		return Result{}, &SpawnError{Kind: req.Kind, Err: errors.New("stub scripted spawn failure")}
	}

	start := time.Now()
	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Result{
					TimedOut: true,
					ExitCode: models.ExitTimedOut,
					Duration: time.Since(start),
				}, nil
			}
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Result{
		Stdout:   step.Stdout,
		Stderr:   step.Stderr,
		ExitCode: step.ExitCode,
		Duration: time.Since(start),
	}, nil
}
