package harness

import "sync"

const defaultCaptureLimit = 256 * 1024

// TruncationMarker prefixes captured output whose head was dropped.
const TruncationMarker = "[output truncated]\n"

// capWriter keeps the most recent limit bytes of everything written to it.
// The tail is what matters: promise markers arrive at the end of a run, and
// a runaway process must not grow memory without bound.
type capWriter struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

func newCapWriter(limit int) *capWriter {
	if limit <= 0 {
		limit = defaultCaptureLimit
	}
	return &capWriter{limit: limit}
}

func (w *capWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(p)
	if n >= w.limit {
		if n > w.limit || len(w.buf) > 0 {
			w.truncated = true
		}
		w.buf = append(w.buf[:0], p[n-w.limit:]...)
		return n, nil
	}

	if overflow := len(w.buf) + n - w.limit; overflow > 0 {
		w.buf = w.buf[overflow:]
		w.truncated = true
	}
	w.buf = append(w.buf, p...)
	return n, nil
}

// String returns the captured tail, prefixed with the truncation marker when
// earlier output was dropped.
func (w *capWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.truncated {
		return TruncationMarker + string(w.buf)
	}
	return string(w.buf)
}

// Truncated reports whether any output was dropped.
func (w *capWriter) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncated
}
