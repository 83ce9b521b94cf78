// Package loop drives iterative harness runs for a change: a sequential
// state machine that invokes the harness, scans its output, and records
// every iteration durably before the next one starts.
package loop

import (
	"fmt"

	"github.com/ralphloop/ralph/internal/models"
)

// TransitionError is returned when an invalid status transition is attempted.
type TransitionError struct {
	ChangeRef  models.ChangeRef
	FromStatus models.LoopStatus
	ToStatus   models.LoopStatus
	Reason     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for change %s: %s -> %s: %s",
		e.ChangeRef, e.FromStatus, e.ToStatus, e.Reason)
}

// validTransitions defines which status transitions are allowed.
// Map key is the current status, value is a set of valid target statuses.
// Terminal statuses have no entries: leaving one requires an explicit
// reset back to idle, which is a caller operation, not a transition.
var validTransitions = map[models.LoopStatus]map[models.LoopStatus]bool{
	models.StatusIdle: {
		models.StatusRunning: true, // Run entered
	},
	models.StatusRunning: {
		models.StatusRunning:              true, // Resume of an interrupted run
		models.StatusCompleted:            true, // Harness signalled done
		models.StatusFailed:               true, // Spawn failure or blocked with stop-on-failure
		models.StatusMaxIterationsReached: true, // Iteration limit hit
		models.StatusCancelled:            true, // Operator interrupt
	},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to models.LoopStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// ValidTargetStatuses returns the statuses reachable from the given status.
func ValidTargetStatuses(from models.LoopStatus) []models.LoopStatus {
	targets, ok := validTransitions[from]
	if !ok {
		return nil
	}
	result := make([]models.LoopStatus, 0, len(targets))
	for status := range targets {
		result = append(result, status)
	}
	return result
}

func checkTransition(state *models.LoopState, to models.LoopStatus) error {
	if !IsValidTransition(state.Status, to) {
		reason := "transition not allowed"
		if state.Status.Terminal() {
			reason = "run already terminated; reset to idle before starting a new run"
		}
		return &TransitionError{
			ChangeRef:  state.ChangeRef,
			FromStatus: state.Status,
			ToStatus:   to,
			Reason:     reason,
		}
	}
	return nil
}
