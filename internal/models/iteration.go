package models

import "time"

// Verdict is the output scanner's classification of one iteration's result.
type Verdict string

const (
	VerdictContinue    Verdict = "continue"
	VerdictComplete    Verdict = "complete"
	VerdictBlocked     Verdict = "blocked"
	VerdictUnparseable Verdict = "unparseable"
)

// Sentinel exit codes recorded on iterations whose process never produced a
// real one.
const (
	// ExitSpawnFailed marks an iteration whose harness executable could not
	// be located or started.
	ExitSpawnFailed = -1
	// ExitTimedOut marks an iteration whose process was killed at the
	// per-iteration deadline.
	ExitTimedOut = 124
)

// Iteration captures one harness invocation plus its observed outcome. An
// iteration is immutable once appended to history; corrections only happen
// through later iterations.
type Iteration struct {
	Index           int           `json:"index"`
	Harness         HarnessKind   `json:"harness"`
	Prompt          string        `json:"prompt"`
	Stdout          string        `json:"stdout,omitempty"`
	Stderr          string        `json:"stderr,omitempty"`
	StdoutTruncated bool          `json:"stdout_truncated,omitempty"`
	StderrTruncated bool          `json:"stderr_truncated,omitempty"`
	ExitCode        int           `json:"exit_code"`
	Duration        time.Duration `json:"duration_ns"`
	Verdict         Verdict       `json:"verdict"`
	StartedAt       time.Time     `json:"started_at"`
}
