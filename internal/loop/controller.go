package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ralphloop/ralph/internal/events"
	"github.com/ralphloop/ralph/internal/harness"
	"github.com/ralphloop/ralph/internal/ledger"
	"github.com/ralphloop/ralph/internal/logging"
	"github.com/ralphloop/ralph/internal/models"
	"github.com/ralphloop/ralph/internal/scanner"
	"github.com/ralphloop/ralph/internal/store"
)

const defaultPromptTailIterations = 3

// Request describes one loop run.
type Request struct {
	ChangeRef models.ChangeRef
	Prompt    string
	Harness   models.HarnessKind
	Model     string
	Stop      models.StopCondition

	// CaptureLimit bounds captured stdout/stderr per iteration, in bytes.
	// Zero means the adapter default.
	CaptureLimit int
}

// Validate checks the request.
func (r *Request) Validate() error {
	validation := &models.ValidationErrors{}
	if err := r.ChangeRef.Validate(); err != nil {
		validation.Add("change_ref", err)
	}
	if r.Prompt == "" {
		validation.Add("prompt", models.ErrEmptyPrompt)
	}
	if err := r.Harness.Validate(); err != nil {
		validation.Add("harness", err)
	}
	if err := r.Stop.Validate(); err != nil {
		validation.Add("stop", err)
	}
	return validation.Err()
}

// Controller runs the iteration state machine for one change at a time.
// It owns the in-memory LoopState for the duration of a run; all durable
// writes go through the store.
type Controller struct {
	Store   *store.Store
	Invoker harness.Invoker
	Emitter events.Emitter
	Ledger  *ledger.Ledger
	Logger  zerolog.Logger

	// PromptTailIterations is how many recent iterations are summarized
	// into the next prompt.
	PromptTailIterations int
}

// NewController creates a controller with default dependencies.
func NewController(st *store.Store, invoker harness.Invoker) *Controller {
	return &Controller{
		Store:                st,
		Invoker:              invoker,
		Emitter:              events.Nop{},
		Logger:               logging.Component("loop"),
		PromptTailIterations: defaultPromptTailIterations,
	}
}

// Run drives the loop for a change until a terminal status is reached.
//
// ctx carries operator cancellation only: it is checked between iterations,
// and an in-flight iteration is allowed to finish (or time out) before the
// run flushes Cancelled. The per-iteration timeout is enforced on a separate
// context so cancellation never kills a harness mid-write.
//
// The returned state is the final flushed state; mapping its status to an
// exit code is the caller's concern. An error is returned only when the run
// could not proceed safely: invalid input, corrupt or unwritable state.
func (c *Controller) Run(ctx context.Context, req Request) (*models.LoopState, error) {
	if c.Store == nil || c.Invoker == nil {
		return nil, errors.New("controller requires store and invoker")
	}
	if c.Emitter == nil {
		c.Emitter = events.Nop{}
	}
	if c.PromptTailIterations <= 0 {
		c.PromptTailIterations = defaultPromptTailIterations
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state, err := c.Store.Load(req.ChangeRef)
	if err != nil {
		return nil, err
	}

	// Entry from Idle, or resume of a Running state left by an interrupted
	// prior run. Terminal states refuse to transition.
	if err := checkTransition(state, models.StatusRunning); err != nil {
		return state, err
	}
	state.RunID = uuid.New().String()
	if state.StartedAt.IsZero() {
		state.StartedAt = time.Now().UTC()
	}
	if err := c.Store.SetStatus(state, models.StatusRunning); err != nil {
		return state, fmt.Errorf("flush running status: %w", err)
	}

	c.Logger.Info().
		Str("change_ref", req.ChangeRef.String()).
		Str("run_id", state.RunID).
		Str("harness", string(req.Harness)).
		Int("resumed_iterations", state.IterationCount).
		Msg("loop started")

	for {
		if ctx.Err() != nil {
			c.Logger.Info().Str("change_ref", req.ChangeRef.String()).Msg("cancellation observed")
			return state, c.finish(ctx, state, models.StatusCancelled)
		}

		if state.IterationCount >= req.Stop.MaxIterations {
			return state, c.finish(ctx, state, models.StatusMaxIterationsReached)
		}

		iter, err := c.runIteration(ctx, state, req)
		if err != nil {
			var spawnErr *harness.SpawnError
			if errors.As(err, &spawnErr) {
				// Harness unavailability is not retried within a run. A
				// synthetic Blocked iteration records the attempt.
				synthetic := models.Iteration{
					Index:     state.IterationCount + 1,
					Harness:   req.Harness,
					Prompt:    iter.Prompt,
					Stderr:    spawnErr.Error(),
					ExitCode:  models.ExitSpawnFailed,
					Verdict:   models.VerdictBlocked,
					StartedAt: iter.StartedAt,
				}
				if appendErr := c.recordIteration(ctx, state, synthetic); appendErr != nil {
					return state, appendErr
				}
				c.Logger.Error().Err(spawnErr).Str("harness", string(req.Harness)).Msg("harness spawn failed")
				return state, c.finish(ctx, state, models.StatusFailed)
			}
			return state, err
		}

		if err := c.recordIteration(ctx, state, iter); err != nil {
			return state, err
		}

		switch {
		case iter.Verdict == models.VerdictComplete:
			return state, c.finish(ctx, state, models.StatusCompleted)
		case iter.Verdict == models.VerdictBlocked && req.Stop.StopOnFailure:
			return state, c.finish(ctx, state, models.StatusFailed)
		default:
			// Blocked without stop-on-failure, Continue, and Unparseable
			// all drive the next iteration.
		}
	}
}

func (c *Controller) runIteration(ctx context.Context, state *models.LoopState, req Request) (models.Iteration, error) {
	index := state.IterationCount + 1
	prompt := BuildPrompt(req.Prompt, state.History, c.PromptTailIterations)
	startedAt := time.Now().UTC()

	iter := models.Iteration{
		Index:     index,
		Harness:   req.Harness,
		Prompt:    prompt,
		StartedAt: startedAt,
	}

	c.emit(ctx, state, models.Event{
		Type:           models.EventIterationStarted,
		IterationIndex: index,
	})

	// The iteration timeout deliberately does not derive from ctx: operator
	// cancellation waits for the iteration instead of killing it.
	iterCtx := context.Background()
	if req.Stop.TimeoutPerIteration > 0 {
		var cancel context.CancelFunc
		iterCtx, cancel = context.WithTimeout(iterCtx, req.Stop.TimeoutPerIteration)
		defer cancel()
	}

	result, err := c.Invoker.Invoke(iterCtx, harness.Request{
		Kind:         req.Harness,
		Prompt:       prompt,
		Model:        req.Model,
		WorkingRoot:  state.WorkingRoot,
		CaptureLimit: req.CaptureLimit,
	})
	if err != nil {
		return iter, err
	}

	iter.Stdout = result.Stdout
	iter.Stderr = result.Stderr
	iter.StdoutTruncated = result.StdoutTruncated
	iter.StderrTruncated = result.StderrTruncated
	iter.ExitCode = result.ExitCode
	iter.Duration = result.Duration

	if result.TimedOut {
		// A timed-out harness cannot have signalled completion.
		iter.Verdict = models.VerdictBlocked
		c.Logger.Warn().
			Str("change_ref", state.ChangeRef.String()).
			Int("iteration", index).
			Dur("timeout", req.Stop.TimeoutPerIteration).
			Msg("iteration timed out")
	} else {
		iter.Verdict = scanner.Scan(result.Stdout)
		if iter.Verdict == models.VerdictBlocked {
			if note := scanner.Note(result.Stdout, models.VerdictBlocked); note != "" {
				c.Logger.Warn().
					Str("change_ref", state.ChangeRef.String()).
					Int("iteration", index).
					Str("reason", note).
					Msg("harness reported blocked")
			}
		}
	}
	if iter.Verdict == models.VerdictUnparseable {
		c.Logger.Warn().
			Str("change_ref", state.ChangeRef.String()).
			Int("iteration", index).
			Msg("no completion marker found; treating as continue")
	}

	return iter, nil
}

// recordIteration durably appends the iteration, then mirrors it to the
// ledger and event sinks. The append is the only step that can fail the run.
func (c *Controller) recordIteration(ctx context.Context, state *models.LoopState, iter models.Iteration) error {
	if err := c.Store.AppendIteration(state, iter); err != nil {
		return fmt.Errorf("flush iteration %d: %w", iter.Index, err)
	}

	if c.Ledger != nil {
		if err := c.Ledger.AppendIteration(state, iter); err != nil {
			c.Logger.Warn().Err(err).Msg("ledger append failed")
		}
	}

	c.emit(ctx, state, models.Event{
		Type:           models.EventIterationFinished,
		IterationIndex: iter.Index,
		Verdict:        iter.Verdict,
		Detail:         fmt.Sprintf("exit_code=%d duration=%s", iter.ExitCode, iter.Duration.Round(time.Millisecond)),
	})

	c.Logger.Info().
		Str("change_ref", state.ChangeRef.String()).
		Int("iteration", iter.Index).
		Str("verdict", string(iter.Verdict)).
		Int("exit_code", iter.ExitCode).
		Dur("duration", iter.Duration).
		Msg("iteration finished")

	return nil
}

func (c *Controller) finish(ctx context.Context, state *models.LoopState, status models.LoopStatus) error {
	if err := checkTransition(state, status); err != nil {
		return err
	}
	if err := c.Store.SetStatus(state, status); err != nil {
		return fmt.Errorf("flush terminal status %s: %w", status, err)
	}

	if c.Ledger != nil {
		if err := c.Ledger.AppendTermination(state); err != nil {
			c.Logger.Warn().Err(err).Msg("ledger append failed")
		}
	}

	c.emit(ctx, state, models.Event{
		Type:   models.EventRunTerminated,
		Status: status,
	})

	c.Logger.Info().
		Str("change_ref", state.ChangeRef.String()).
		Str("status", string(status)).
		Int("iterations", state.IterationCount).
		Msg("loop terminated")

	return nil
}

func (c *Controller) emit(ctx context.Context, state *models.LoopState, event models.Event) {
	event.ChangeRef = state.ChangeRef
	event.RunID = state.RunID
	// Events still flow after operator cancellation.
	c.Emitter.Emit(context.WithoutCancel(ctx), event)
}
