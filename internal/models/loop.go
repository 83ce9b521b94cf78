package models

import "time"

// LoopStatus represents the current status of a loop run.
type LoopStatus string

const (
	StatusIdle                 LoopStatus = "idle"
	StatusRunning              LoopStatus = "running"
	StatusCompleted            LoopStatus = "completed"
	StatusFailed               LoopStatus = "failed"
	StatusMaxIterationsReached LoopStatus = "max_iterations_reached"
	StatusCancelled            LoopStatus = "cancelled"
)

// Validate checks that the status is a known value.
func (s LoopStatus) Validate() error {
	switch s {
	case StatusIdle, StatusRunning, StatusCompleted, StatusFailed,
		StatusMaxIterationsReached, StatusCancelled:
		return nil
	default:
		return ErrInvalidLoopStatus
	}
}

// Terminal reports whether the status admits no further transitions.
func (s LoopStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusMaxIterationsReached, StatusCancelled:
		return true
	default:
		return false
	}
}

// LoopState is the persisted aggregate for one (ChangeRef, WorkingRoot)
// pair. The controller exclusively owns the in-memory value for the duration
// of a run; the store owns the durable representation.
type LoopState struct {
	Version        int         `json:"version"`
	ChangeRef      ChangeRef   `json:"change_ref"`
	WorkingRoot    string      `json:"working_root"`
	RunID          string      `json:"run_id,omitempty"`
	Status         LoopStatus  `json:"status"`
	IterationCount int         `json:"iteration_count"`
	History        []Iteration `json:"-"`
	StartedAt      time.Time   `json:"started_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at,omitempty"`
}

// Validate checks the persisted aggregate's invariants.
func (s *LoopState) Validate() error {
	validation := &ValidationErrors{}
	if err := s.ChangeRef.Validate(); err != nil {
		validation.Add("change_ref", err)
	}
	if err := ValidateWorkingRoot(s.WorkingRoot); err != nil {
		validation.Add("working_root", err)
	}
	if err := s.Status.Validate(); err != nil {
		validation.Add("status", err)
	}
	if s.IterationCount != len(s.History) {
		validation.AddMessage("iteration_count", "iteration_count must equal history length")
	}
	return validation.Err()
}

// StopCondition bounds a loop run. Supplied by the caller; immutable for the
// run.
type StopCondition struct {
	MaxIterations       int           `json:"max_iterations"`
	TimeoutPerIteration time.Duration `json:"timeout_per_iteration,omitempty"`
	StopOnFailure       bool          `json:"stop_on_failure,omitempty"`
}

// Validate checks the stop condition.
func (c StopCondition) Validate() error {
	validation := &ValidationErrors{}
	if c.MaxIterations < 1 {
		validation.Add("max_iterations", ErrInvalidMaxIterations)
	}
	if c.TimeoutPerIteration < 0 {
		validation.AddMessage("timeout_per_iteration", "timeout_per_iteration must be zero or positive")
	}
	return validation.Err()
}
