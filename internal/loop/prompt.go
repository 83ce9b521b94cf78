package loop

import (
	"fmt"
	"strings"

	"github.com/ralphloop/ralph/internal/models"
)

const summaryTailLines = 20

// BuildPrompt returns the prompt for the next iteration: the base prompt
// followed by a summary of the most recent iterations. It is a pure
// function of its inputs; the same history always yields the same prompt.
func BuildPrompt(base string, history []models.Iteration, tailIterations int) string {
	base = strings.TrimSpace(base)
	if len(history) == 0 || tailIterations <= 0 {
		return base
	}

	start := len(history) - tailIterations
	if start < 0 {
		start = 0
	}

	b := strings.Builder{}
	b.WriteString(base)
	b.WriteString("\n\n## Previous iterations\n")
	for _, iter := range history[start:] {
		b.WriteString(fmt.Sprintf("\n### Iteration %d (verdict=%s exit_code=%d)\n",
			iter.Index, iter.Verdict, iter.ExitCode))
		if tail := lastLines(iter.Stdout, summaryTailLines); strings.TrimSpace(tail) != "" {
			b.WriteString("```\n")
			b.WriteString(strings.TrimSpace(tail))
			b.WriteString("\n```\n")
		}
	}
	return b.String()
}

func lastLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
