package events

import (
	"context"
	"errors"
	"testing"

	"github.com/ralphloop/ralph/internal/models"
)

type captureRecorder struct {
	recorded []models.Event
	fail     bool
}

func (c *captureRecorder) Record(_ context.Context, event *models.Event) error {
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.recorded = append(c.recorded, *event)
	return nil
}

func TestRecordedFillsIDAndTimestamp(t *testing.T) {
	recorder := &captureRecorder{}
	emitter := NewRecorded(recorder)

	emitter.Emit(context.Background(), models.Event{
		ChangeRef: "change-1",
		Type:      models.EventIterationStarted,
	})

	if len(recorder.recorded) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(recorder.recorded))
	}
	event := recorder.recorded[0]
	if event.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if event.CreatedAt.IsZero() {
		t.Fatal("expected an assigned timestamp")
	}
}

func TestRecordedSwallowsSinkFailures(t *testing.T) {
	emitter := NewRecorded(&captureRecorder{fail: true})

	// Emit must not panic or propagate the failure.
	emitter.Emit(context.Background(), models.Event{
		ChangeRef: "change-1",
		Type:      models.EventRunTerminated,
	})
}

func TestMultiFansOut(t *testing.T) {
	first := &captureRecorder{}
	second := &captureRecorder{}
	multi := Multi{NewRecorded(first), NewRecorded(second)}

	multi.Emit(context.Background(), models.Event{
		ChangeRef: "change-1",
		Type:      models.EventIterationFinished,
	})

	if len(first.recorded) != 1 || len(second.recorded) != 1 {
		t.Fatalf("expected both sinks to receive the event: %d, %d",
			len(first.recorded), len(second.recorded))
	}
}

func TestNopDiscards(t *testing.T) {
	Nop{}.Emit(context.Background(), models.Event{ChangeRef: "change-1"})
}
