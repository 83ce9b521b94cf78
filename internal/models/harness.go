package models

// HarnessKind identifies an external coding-agent CLI.
type HarnessKind string

const (
	HarnessClaude  HarnessKind = "claude"
	HarnessCodex   HarnessKind = "codex"
	HarnessCopilot HarnessKind = "copilot"
	// HarnessStub performs no process or network I/O and is the only kind
	// permitted in automated tests.
	HarnessStub HarnessKind = "stub"
)

// Validate checks that the kind is a member of the closed set.
func (h HarnessKind) Validate() error {
	switch h {
	case HarnessClaude, HarnessCodex, HarnessCopilot, HarnessStub:
		return nil
	default:
		return ErrInvalidHarnessKind
	}
}

// ParseHarnessKind converts a string into a HarnessKind.
func ParseHarnessKind(value string) (HarnessKind, error) {
	kind := HarnessKind(value)
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}
