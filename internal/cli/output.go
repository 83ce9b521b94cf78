package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// stateSummary is the JSON shape printed for run and status commands.
type stateSummary struct {
	ChangeRef      string     `json:"change_ref"`
	WorkingRoot    string     `json:"working_root"`
	RunID          string     `json:"run_id,omitempty"`
	Status         string     `json:"status"`
	IterationCount int        `json:"iteration_count"`
	LastVerdict    string     `json:"last_verdict,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func summarize(state *models.LoopState) stateSummary {
	summary := stateSummary{
		ChangeRef:      state.ChangeRef.String(),
		WorkingRoot:    state.WorkingRoot,
		RunID:          state.RunID,
		Status:         string(state.Status),
		IterationCount: state.IterationCount,
	}
	if len(state.History) > 0 {
		summary.LastVerdict = string(state.History[len(state.History)-1].Verdict)
	}
	if !state.StartedAt.IsZero() {
		t := state.StartedAt
		summary.StartedAt = &t
	}
	if !state.UpdatedAt.IsZero() {
		t := state.UpdatedAt
		summary.UpdatedAt = &t
	}
	return summary
}

func printRunSummary(state *models.LoopState) {
	if jsonOutput {
		printJSON(summarize(state))
		return
	}
	fmt.Printf("%s: %s after %d iteration(s)\n", state.ChangeRef, state.Status, state.IterationCount)
}

func printStateStatus(state *models.LoopState) {
	if jsonOutput {
		printJSON(summarize(state))
		return
	}

	fmt.Printf("Change:     %s\n", state.ChangeRef)
	fmt.Printf("Root:       %s\n", state.WorkingRoot)
	fmt.Printf("Status:     %s\n", state.Status)
	fmt.Printf("Iterations: %d\n", state.IterationCount)
	if state.RunID != "" {
		fmt.Printf("Run ID:     %s\n", state.RunID)
	}
	if len(state.History) > 0 {
		last := state.History[len(state.History)-1]
		fmt.Printf("Last:       iteration %d, verdict %s, exit code %d\n", last.Index, last.Verdict, last.ExitCode)
	}
	if !state.UpdatedAt.IsZero() {
		fmt.Printf("Updated:    %s\n", state.UpdatedAt.Local().Format(time.RFC3339))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
