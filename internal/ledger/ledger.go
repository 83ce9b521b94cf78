// Package ledger appends a human-readable markdown mirror of loop activity
// inside the working root. The ledger is an observability surface only;
// append failures are tolerated by callers and never affect the run.
package ledger

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralphloop/ralph/internal/models"
	"gopkg.in/yaml.v3"
)

const maxOutputLines = 60

// Ledger writes markdown entries for one change under a working root.
type Ledger struct {
	workingRoot string
	changeRef   models.ChangeRef
}

// New creates a ledger for the given change.
func New(workingRoot string, ref models.ChangeRef) *Ledger {
	return &Ledger{workingRoot: workingRoot, changeRef: ref}
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return filepath.Join(l.workingRoot, ".ralph", "ledgers", l.changeRef.String()+".md")
}

func (l *Ledger) ensureFile() error {
	path := l.Path()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	content := strings.Builder{}
	content.WriteString("---\n")
	content.WriteString(fmt.Sprintf("change_ref: %s\n", l.changeRef))
	content.WriteString(fmt.Sprintf("working_root: %s\n", l.workingRoot))
	content.WriteString(fmt.Sprintf("created_at: %s\n", time.Now().UTC().Format(time.RFC3339)))
	content.WriteString("---\n\n")
	content.WriteString(fmt.Sprintf("# Loop Ledger: %s\n\n", l.changeRef))

	return os.WriteFile(path, []byte(content.String()), 0o644)
}

// AppendIteration appends one iteration entry.
func (l *Ledger) AppendIteration(state *models.LoopState, iter models.Iteration) error {
	if err := l.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	entry := strings.Builder{}
	entry.WriteString(fmt.Sprintf("## Iteration %d — %s\n\n", iter.Index, time.Now().UTC().Format(time.RFC3339)))
	entry.WriteString(fmt.Sprintf("- run_id: %s\n", state.RunID))
	entry.WriteString(fmt.Sprintf("- harness: %s\n", iter.Harness))
	entry.WriteString(fmt.Sprintf("- verdict: %s\n", iter.Verdict))
	entry.WriteString(fmt.Sprintf("- exit_code: %d\n", iter.ExitCode))
	entry.WriteString(fmt.Sprintf("- duration: %s\n", iter.Duration.Round(time.Millisecond)))
	entry.WriteString(fmt.Sprintf("- started_at: %s\n", iter.StartedAt.UTC().Format(time.RFC3339)))
	if iter.StdoutTruncated {
		entry.WriteString("- stdout_truncated: true\n")
	}
	entry.WriteString("\n")

	if tail := limitOutputLines(iter.Stdout, maxOutputLines); strings.TrimSpace(tail) != "" {
		entry.WriteString("```\n")
		entry.WriteString(strings.TrimSpace(tail))
		entry.WriteString("\n```\n")
	}

	cfg := loadLedgerConfig(l.workingRoot)
	if gitSummary := buildGitSummary(l.workingRoot, cfg); strings.TrimSpace(gitSummary) != "" {
		entry.WriteString("\n### Git Summary\n\n```\n")
		entry.WriteString(strings.TrimSpace(gitSummary))
		entry.WriteString("\n```\n")
	}
	entry.WriteString("\n")

	_, err = f.WriteString(entry.String())
	return err
}

// AppendTermination appends the final status entry for a run.
func (l *Ledger) AppendTermination(state *models.LoopState) error {
	if err := l.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "## Run terminated — %s\n\n- status: %s\n- iterations: %d\n\n",
		time.Now().UTC().Format(time.RFC3339), state.Status, state.IterationCount)
	return err
}

func limitOutputLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

type rootConfig struct {
	Ledger ledgerConfig `yaml:"ledger"`
}

type ledgerConfig struct {
	GitStatus   bool `yaml:"git_status"`
	GitDiffStat bool `yaml:"git_diff_stat"`
}

func loadLedgerConfig(workingRoot string) ledgerConfig {
	path := filepath.Join(workingRoot, ".ralph", "ralph.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return ledgerConfig{}
	}

	var cfg rootConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ledgerConfig{}
	}
	return cfg.Ledger
}

func buildGitSummary(workingRoot string, cfg ledgerConfig) string {
	if !cfg.GitStatus && !cfg.GitDiffStat {
		return ""
	}
	if !isGitRepo(workingRoot) {
		return ""
	}

	lines := make([]string, 0, 8)
	if cfg.GitStatus {
		status, err := runGit(workingRoot, "status", "--porcelain")
		if err == nil {
			lines = append(lines, "status --porcelain:")
			status = strings.TrimSpace(status)
			if status == "" {
				lines = append(lines, "  (clean)")
			} else {
				lines = append(lines, status)
			}
		}
	}
	if cfg.GitDiffStat {
		diffStat, err := runGit(workingRoot, "diff", "--stat")
		if err == nil {
			lines = append(lines, "diff --stat:")
			diffStat = strings.TrimSpace(diffStat)
			if diffStat == "" {
				lines = append(lines, "  (clean)")
			} else {
				lines = append(lines, diffStat)
			}
		}
	}

	return strings.Join(lines, "\n")
}

func isGitRepo(workingRoot string) bool {
	output, err := runGit(workingRoot, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(output) == "true"
}

func runGit(workingRoot string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = workingRoot

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
