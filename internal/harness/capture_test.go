package harness

import (
	"strings"
	"testing"
)

func TestCapWriterBelowLimit(t *testing.T) {
	w := newCapWriter(32)
	if _, err := w.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := w.String(); got != "hello world" {
		t.Fatalf("String = %q", got)
	}
	if w.Truncated() {
		t.Fatal("expected no truncation")
	}
}

func TestCapWriterKeepsTail(t *testing.T) {
	w := newCapWriter(8)
	for _, chunk := range []string{"aaaa", "bbbb", "cccc"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if !w.Truncated() {
		t.Fatal("expected truncation")
	}
	got := w.String()
	if !strings.HasPrefix(got, TruncationMarker) {
		t.Fatalf("expected truncation marker prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "bbbbcccc") {
		t.Fatalf("expected most recent tail, got %q", got)
	}
}

func TestCapWriterSingleOversizeWrite(t *testing.T) {
	w := newCapWriter(4)
	n, err := w.Write([]byte("abcdefgh"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected full write acknowledged, got %d", n)
	}
	if got := w.String(); got != TruncationMarker+"efgh" {
		t.Fatalf("String = %q", got)
	}
}

func TestCapWriterExactLimitIsNotTruncated(t *testing.T) {
	w := newCapWriter(4)
	if _, err := w.Write([]byte("abcd")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.Truncated() {
		t.Fatal("a single write exactly at the limit drops nothing")
	}
	if got := w.String(); got != "abcd" {
		t.Fatalf("String = %q", got)
	}
}

func TestCapWriterDefaultLimit(t *testing.T) {
	w := newCapWriter(0)
	if w.limit != defaultCaptureLimit {
		t.Fatalf("expected default limit %d, got %d", defaultCaptureLimit, w.limit)
	}
}
