package models

import "time"

// EventType identifies an audit event emitted by the loop controller.
type EventType string

const (
	EventIterationStarted  EventType = "iteration_started"
	EventIterationFinished EventType = "iteration_finished"
	EventRunTerminated     EventType = "run_terminated"
)

// Event is one audit record of loop activity. Emission is fire-and-forget;
// events never influence loop outcome.
type Event struct {
	ID             string     `json:"id"`
	ChangeRef      ChangeRef  `json:"change_ref"`
	RunID          string     `json:"run_id,omitempty"`
	Type           EventType  `json:"type"`
	IterationIndex int        `json:"iteration_index,omitempty"`
	Verdict        Verdict    `json:"verdict,omitempty"`
	Status         LoopStatus `json:"status,omitempty"`
	Detail         string     `json:"detail,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
