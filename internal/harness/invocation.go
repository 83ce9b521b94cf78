package harness

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/ralphloop/ralph/internal/models"
)

// Invocation is a prepared harness command. Building one is pure: no process
// is spawned and no state is touched beyond reading the codex config file.
type Invocation struct {
	// Argv is the command and its arguments.
	Argv []string

	// Stdin is piped to the process when non-empty.
	Stdin string

	// Env is appended to the inherited environment.
	Env []string
}

// BuildInvocation maps a prompt into the argv, stdin, and env for the given
// harness kind. The stub kind has no invocation; callers use the Stub
// invoker instead.
func BuildInvocation(kind models.HarnessKind, prompt, model string) (Invocation, error) {
	if prompt == "" {
		return Invocation{}, models.ErrEmptyPrompt
	}

	switch kind {
	case models.HarnessClaude:
		argv := []string{"claude", "-p", prompt, "--dangerously-skip-permissions"}
		if model != "" {
			argv = append(argv, "--model", model)
		}
		return Invocation{Argv: argv}, nil

	case models.HarnessCodex:
		argv := []string{"codex", "exec"}
		sandbox := codexSandboxMode(codexConfigPath())
		if sandbox != "" && sandbox != "workspace-write" {
			// --full-auto forces workspace-write, so use the configured
			// stricter sandbox instead.
			argv = append(argv, "--sandbox", sandbox)
		} else {
			argv = append(argv, "--full-auto")
		}
		if model != "" {
			argv = append(argv, "--model", model)
		}
		argv = append(argv, "-")
		return Invocation{Argv: argv, Stdin: prompt}, nil

	case models.HarnessCopilot:
		argv := []string{"copilot", "-p", prompt, "--allow-all-tools"}
		if model != "" {
			argv = append(argv, "--model", model)
		}
		return Invocation{Argv: argv}, nil

	default:
		return Invocation{}, models.ErrInvalidHarnessKind
	}
}

type codexConfig struct {
	SandboxMode string `toml:"sandbox_mode"`
}

func codexConfigPath() string {
	if home := os.Getenv("CODEX_HOME"); home != "" {
		return filepath.Join(home, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".codex", "config.toml")
}

func codexSandboxMode(configPath string) string {
	if configPath == "" {
		return ""
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return ""
	}

	var cfg codexConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.SandboxMode
}
