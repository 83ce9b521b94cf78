package scanner

import (
	"strings"
	"testing"

	"github.com/ralphloop/ralph/internal/models"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   models.Verdict
	}{
		{"empty output", "", models.VerdictUnparseable},
		{"free text only", "working on the fix\nrunning tests", models.VerdictUnparseable},
		{"bare complete marker", "LOOP_COMPLETE", models.VerdictComplete},
		{"complete with note", "LOOP_COMPLETE: all tests green", models.VerdictComplete},
		{"complete with space note", "LOOP_COMPLETE all tests green", models.VerdictComplete},
		{"bare blocked marker", "LOOP_BLOCKED", models.VerdictBlocked},
		{"blocked with note", "LOOP_BLOCKED: missing API key", models.VerdictBlocked},
		{"marker amid free text", "fixing tests\nLOOP_COMPLETE\nbye", models.VerdictComplete},
		{"indented marker", "   LOOP_COMPLETE", models.VerdictComplete},
		{"last marker wins", "LOOP_BLOCKED: flaky\nmore work\nLOOP_COMPLETE", models.VerdictComplete},
		{"last marker wins reversed", "LOOP_COMPLETE\nactually no\nLOOP_BLOCKED: regression", models.VerdictBlocked},
		{"marker glued to text is free text", "LOOP_COMPLETED", models.VerdictUnparseable},
		{"lowercase is free text", "loop_complete", models.VerdictUnparseable},
		{"marker mid-line is free text", "I will print LOOP_COMPLETE when done", models.VerdictUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scan(tt.stdout); got != tt.want {
				t.Fatalf("Scan(%q) = %s, want %s", tt.stdout, got, tt.want)
			}
		})
	}
}

func TestScanIsPure(t *testing.T) {
	stdout := "progress\nLOOP_BLOCKED: waiting\nLOOP_COMPLETE: done"
	first := Scan(stdout)
	for i := 0; i < 10; i++ {
		if got := Scan(stdout); got != first {
			t.Fatalf("Scan returned %s then %s for identical input", first, got)
		}
	}
}

func TestScanLargeOutput(t *testing.T) {
	lines := make([]string, 0, 10001)
	for i := 0; i < 10000; i++ {
		lines = append(lines, "noise")
	}
	lines = append(lines, "LOOP_COMPLETE: finally")

	if got := Scan(strings.Join(lines, "\n")); got != models.VerdictComplete {
		t.Fatalf("expected complete, got %s", got)
	}
}

func TestNote(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		verdict models.Verdict
		want    string
	}{
		{"complete note", "LOOP_COMPLETE: tests pass", models.VerdictComplete, "tests pass"},
		{"blocked note", "LOOP_BLOCKED: no credentials", models.VerdictBlocked, "no credentials"},
		{"bare marker has no note", "LOOP_COMPLETE", models.VerdictComplete, ""},
		{"last note wins", "LOOP_BLOCKED: first\nLOOP_BLOCKED: second", models.VerdictBlocked, "second"},
		{"no note for unparseable", "free text", models.VerdictUnparseable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Note(tt.stdout, tt.verdict); got != tt.want {
				t.Fatalf("Note = %q, want %q", got, tt.want)
			}
		})
	}
}
