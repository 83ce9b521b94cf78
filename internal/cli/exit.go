package cli

import "github.com/ralphloop/ralph/internal/models"

// ExitError carries an exit code and whether output was already printed.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Process exit codes for terminal loop statuses.
const (
	exitCompleted            = 0
	exitFailed               = 1
	exitMaxIterationsReached = 3
	exitCancelled            = 130 // interrupted, shell convention
	exitUsage                = 2
)

// exitCodeForStatus maps a terminal loop status to a process exit code.
func exitCodeForStatus(status models.LoopStatus) int {
	switch status {
	case models.StatusCompleted:
		return exitCompleted
	case models.StatusMaxIterationsReached:
		return exitMaxIterationsReached
	case models.StatusCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}
