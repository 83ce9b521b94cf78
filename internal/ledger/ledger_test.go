package ledger

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

func testState(root string) *models.LoopState {
	return &models.LoopState{
		ChangeRef:   "change-1",
		WorkingRoot: root,
		RunID:       "run-1",
		Status:      models.StatusRunning,
	}
}

func TestAppendIterationCreatesLedger(t *testing.T) {
	root := t.TempDir()
	l := New(root, "change-1")

	iter := models.Iteration{
		Index:     1,
		Harness:   models.HarnessStub,
		Stdout:    "did some work\nLOOP_COMPLETE",
		ExitCode:  0,
		Duration:  90 * time.Millisecond,
		Verdict:   models.VerdictComplete,
		StartedAt: time.Now().UTC(),
	}
	if err := l.AppendIteration(testState(root), iter); err != nil {
		t.Fatalf("AppendIteration: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		t.Fatal("expected yaml front matter")
	}
	if !strings.Contains(content, "change_ref: change-1") {
		t.Fatal("expected change ref in front matter")
	}
	if !strings.Contains(content, "## Iteration 1") {
		t.Fatal("expected iteration heading")
	}
	if !strings.Contains(content, "verdict: complete") {
		t.Fatal("expected verdict entry")
	}
	if !strings.Contains(content, "did some work") {
		t.Fatal("expected output tail")
	}
}

func TestAppendIterationAppends(t *testing.T) {
	root := t.TempDir()
	l := New(root, "change-1")
	state := testState(root)

	for i := 1; i <= 2; i++ {
		iter := models.Iteration{Index: i, Harness: models.HarnessStub, Verdict: models.VerdictContinue}
		if err := l.AppendIteration(state, iter); err != nil {
			t.Fatalf("AppendIteration %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "## Iteration 1") || !strings.Contains(content, "## Iteration 2") {
		t.Fatalf("expected both iterations:\n%s", content)
	}
	if strings.Count(content, "# Loop Ledger") != 1 {
		t.Fatal("expected a single header")
	}
}

func TestAppendIterationLimitsOutputTail(t *testing.T) {
	root := t.TempDir()
	l := New(root, "change-1")

	lines := make([]string, maxOutputLines*2)
	for i := range lines {
		lines[i] = "filler"
	}
	iter := models.Iteration{
		Index:   1,
		Harness: models.HarnessStub,
		Stdout:  strings.Join(lines, "\n"),
		Verdict: models.VerdictContinue,
	}
	if err := l.AppendIteration(testState(root), iter); err != nil {
		t.Fatalf("AppendIteration: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if got := strings.Count(string(data), "filler"); got != maxOutputLines {
		t.Fatalf("expected %d tail lines, got %d", maxOutputLines, got)
	}
}

func TestAppendTermination(t *testing.T) {
	root := t.TempDir()
	l := New(root, "change-1")

	state := testState(root)
	state.Status = models.StatusCompleted
	state.IterationCount = 4
	if err := l.AppendTermination(state); err != nil {
		t.Fatalf("AppendTermination: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "status: completed") {
		t.Fatalf("expected terminal status:\n%s", content)
	}
	if !strings.Contains(content, "iterations: 4") {
		t.Fatalf("expected iteration count:\n%s", content)
	}
}
