// Package events delivers audit events emitted by the loop controller.
//
// Delivery is fire-and-forget: sinks log their own failures and never return
// them, so a broken mirror can never change a loop's outcome.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ralphloop/ralph/internal/logging"
	"github.com/ralphloop/ralph/internal/models"
)

// Emitter receives audit events from the controller.
type Emitter interface {
	Emit(ctx context.Context, event models.Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(context.Context, models.Event) {}

// Log writes events to the structured log.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log-backed emitter.
func NewLog() *Log {
	return &Log{logger: logging.Component("events")}
}

func (l *Log) Emit(_ context.Context, event models.Event) {
	entry := l.logger.Info().
		Str("change_ref", event.ChangeRef.String()).
		Str("type", string(event.Type))
	if event.RunID != "" {
		entry = entry.Str("run_id", event.RunID)
	}
	if event.IterationIndex > 0 {
		entry = entry.Int("iteration", event.IterationIndex)
	}
	if event.Verdict != "" {
		entry = entry.Str("verdict", string(event.Verdict))
	}
	if event.Status != "" {
		entry = entry.Str("status", string(event.Status))
	}
	if event.Detail != "" {
		entry = entry.Str("detail", event.Detail)
	}
	entry.Msg("loop event")
}

// Recorder persists events; satisfied by db.EventRepository.
type Recorder interface {
	Record(ctx context.Context, event *models.Event) error
}

// Recorded mirrors events into a Recorder.
type Recorded struct {
	recorder Recorder
	logger   zerolog.Logger
}

// NewRecorded creates a recorder-backed emitter.
func NewRecorded(recorder Recorder) *Recorded {
	return &Recorded{recorder: recorder, logger: logging.Component("events")}
}

func (r *Recorded) Emit(ctx context.Context, event models.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := r.recorder.Record(ctx, &event); err != nil {
		r.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to record event")
	}
}

// Multi fans events out to several emitters.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event models.Event) {
	for _, e := range m {
		e.Emit(ctx, event)
	}
}
