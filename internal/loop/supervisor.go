package loop

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
//
// The controller checks this context between iterations only, so the first
// signal lets the in-flight iteration finish (or hit its timeout) before the
// run flushes Cancelled. Callers should invoke the returned stop once
// cancellation is observed so a second signal falls through to the default
// handler and terminates the process.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
