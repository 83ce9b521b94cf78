// Package scanner classifies captured harness output into verdicts.
//
// Harnesses signal completion or blockage through promise markers: a line
// whose trimmed text begins with LOOP_COMPLETE or LOOP_BLOCKED, optionally
// followed by ":" and free text. The marker grammar is a versioned contract;
// harness-side wording may drift, the grammar here may not.
package scanner

import (
	"strings"

	"github.com/ralphloop/ralph/internal/models"
)

// MarkerVersion identifies the promise-marker grammar recognized by Scan.
const MarkerVersion = 1

const (
	completeMarker = "LOOP_COMPLETE"
	blockedMarker  = "LOOP_BLOCKED"
)

// Scan classifies stdout from one iteration. It is a pure function: the same
// input always yields the same verdict.
//
// The last marker in the output wins, so a harness that first reports being
// blocked and later reports completion scans as complete. Output without any
// recognizable marker scans as Unparseable; callers treat that as Continue
// by policy.
func Scan(stdout string) models.Verdict {
	verdict := models.VerdictUnparseable

	for _, line := range strings.Split(stdout, "\n") {
		switch classifyLine(strings.TrimSpace(line)) {
		case models.VerdictComplete:
			verdict = models.VerdictComplete
		case models.VerdictBlocked:
			verdict = models.VerdictBlocked
		}
	}

	return verdict
}

func classifyLine(line string) models.Verdict {
	if matchMarker(line, completeMarker) {
		return models.VerdictComplete
	}
	if matchMarker(line, blockedMarker) {
		return models.VerdictBlocked
	}
	return models.VerdictContinue
}

// matchMarker accepts a bare marker, or a marker followed by ":" and a note.
// Marker matching is case-sensitive; lowercase variants are free text.
func matchMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	rest := line[len(marker):]
	if rest == "" {
		return true
	}
	return strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, " ")
}

// Note extracts the free text following the last marker of the given kind,
// or "" when no note is present. Used for logging blocked reasons.
func Note(stdout string, verdict models.Verdict) string {
	marker := ""
	switch verdict {
	case models.VerdictComplete:
		marker = completeMarker
	case models.VerdictBlocked:
		marker = blockedMarker
	default:
		return ""
	}

	note := ""
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if !matchMarker(trimmed, marker) {
			continue
		}
		rest := strings.TrimPrefix(trimmed[len(marker):], ":")
		note = strings.TrimSpace(rest)
	}
	return note
}
