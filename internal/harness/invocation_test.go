package harness

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ralphloop/ralph/internal/models"
)

// pointCodexHome points CODEX_HOME at an empty temp dir so the developer's
// real codex config cannot leak into assertions.
func pointCodexHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CODEX_HOME", dir)
	return dir
}

func TestBuildInvocationClaude(t *testing.T) {
	inv, err := BuildInvocation(models.HarnessClaude, "fix the bug", "")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"claude", "-p", "fix the bug", "--dangerously-skip-permissions"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
	if inv.Stdin != "" {
		t.Fatalf("expected no stdin, got %q", inv.Stdin)
	}
}

func TestBuildInvocationClaudeWithModel(t *testing.T) {
	inv, err := BuildInvocation(models.HarnessClaude, "fix the bug", "opus")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"claude", "-p", "fix the bug", "--dangerously-skip-permissions", "--model", "opus"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestBuildInvocationCopilot(t *testing.T) {
	inv, err := BuildInvocation(models.HarnessCopilot, "fix the bug", "gpt-5")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"copilot", "-p", "fix the bug", "--allow-all-tools", "--model", "gpt-5"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestBuildInvocationCodexDefaultsToFullAuto(t *testing.T) {
	pointCodexHome(t)

	inv, err := BuildInvocation(models.HarnessCodex, "fix the bug", "")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"codex", "exec", "--full-auto", "-"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
	if inv.Stdin != "fix the bug" {
		t.Fatalf("expected prompt on stdin, got %q", inv.Stdin)
	}
}

func TestBuildInvocationCodexHonorsStricterSandbox(t *testing.T) {
	dir := pointCodexHome(t)
	config := []byte("sandbox_mode = \"read-only\"\n")
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), config, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	inv, err := BuildInvocation(models.HarnessCodex, "fix the bug", "o3")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"codex", "exec", "--sandbox", "read-only", "--model", "o3", "-"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestBuildInvocationCodexWorkspaceWriteUsesFullAuto(t *testing.T) {
	dir := pointCodexHome(t)
	config := []byte("sandbox_mode = \"workspace-write\"\n")
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), config, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	inv, err := BuildInvocation(models.HarnessCodex, "fix the bug", "")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"codex", "exec", "--full-auto", "-"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestBuildInvocationCodexIgnoresMalformedConfig(t *testing.T) {
	dir := pointCodexHome(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	inv, err := BuildInvocation(models.HarnessCodex, "fix the bug", "")
	if err != nil {
		t.Fatalf("BuildInvocation: %v", err)
	}
	want := []string{"codex", "exec", "--full-auto", "-"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Fatalf("argv = %v, want %v", inv.Argv, want)
	}
}

func TestBuildInvocationRejectsEmptyPrompt(t *testing.T) {
	if _, err := BuildInvocation(models.HarnessClaude, "", ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestBuildInvocationRejectsStub(t *testing.T) {
	if _, err := BuildInvocation(models.HarnessStub, "fix the bug", ""); err == nil {
		t.Fatal("expected error for stub kind")
	}
}
