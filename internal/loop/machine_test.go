package loop

import (
	"testing"

	"github.com/ralphloop/ralph/internal/models"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.LoopStatus
		to    models.LoopStatus
		valid bool
	}{
		{"idle to running", models.StatusIdle, models.StatusRunning, true},
		{"running resume", models.StatusRunning, models.StatusRunning, true},
		{"running to completed", models.StatusRunning, models.StatusCompleted, true},
		{"running to failed", models.StatusRunning, models.StatusFailed, true},
		{"running to max iterations", models.StatusRunning, models.StatusMaxIterationsReached, true},
		{"running to cancelled", models.StatusRunning, models.StatusCancelled, true},
		{"idle to completed", models.StatusIdle, models.StatusCompleted, false},
		{"completed to running", models.StatusCompleted, models.StatusRunning, false},
		{"failed to running", models.StatusFailed, models.StatusRunning, false},
		{"cancelled to completed", models.StatusCancelled, models.StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTransition(tt.from, tt.to); got != tt.valid {
				t.Fatalf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.valid)
			}
		})
	}
}

func TestTerminalStatusesHaveNoTargets(t *testing.T) {
	terminal := []models.LoopStatus{
		models.StatusCompleted,
		models.StatusFailed,
		models.StatusMaxIterationsReached,
		models.StatusCancelled,
	}
	for _, status := range terminal {
		if targets := ValidTargetStatuses(status); len(targets) != 0 {
			t.Fatalf("terminal status %s has targets %v", status, targets)
		}
	}
}

func TestCheckTransitionReportsTerminalReason(t *testing.T) {
	state := &models.LoopState{
		ChangeRef: models.ChangeRef("change-1"),
		Status:    models.StatusCompleted,
	}

	err := checkTransition(state, models.StatusRunning)
	if err == nil {
		t.Fatal("expected error")
	}
	transitionErr, ok := err.(*TransitionError)
	if !ok {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if transitionErr.FromStatus != models.StatusCompleted || transitionErr.ToStatus != models.StatusRunning {
		t.Fatalf("unexpected transition %s -> %s", transitionErr.FromStatus, transitionErr.ToStatus)
	}
}
