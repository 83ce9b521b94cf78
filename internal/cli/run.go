package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralphloop/ralph/internal/config"
	"github.com/ralphloop/ralph/internal/db"
	"github.com/ralphloop/ralph/internal/events"
	"github.com/ralphloop/ralph/internal/harness"
	"github.com/ralphloop/ralph/internal/ledger"
	"github.com/ralphloop/ralph/internal/loop"
	"github.com/ralphloop/ralph/internal/models"
	"github.com/ralphloop/ralph/internal/store"
)

var (
	runRoot          string
	runPrompt        string
	runPromptFile    string
	runHarness       string
	runModel         string
	runMaxIterations int
	runTimeout       time.Duration
	runStopOnFailure bool
	runNoEvents      bool
	runNoLedger      bool
)

var runCmd = &cobra.Command{
	Use:   "run <change-ref>",
	Short: "Run the iteration loop for a change",
	Long: `Run invokes the configured harness against the change until it signals
completion (LOOP_COMPLETE), reports being blocked (LOOP_BLOCKED), hits the
iteration limit, or the operator interrupts with Ctrl-C.

The exit code reflects the final status: 0 completed, 1 failed,
3 max iterations reached, 130 cancelled.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoopCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runRoot, "root", "", "working root directory (default: current directory)")
	runCmd.Flags().StringVarP(&runPrompt, "prompt", "p", "", "base prompt text")
	runCmd.Flags().StringVar(&runPromptFile, "prompt-file", "", "file containing the base prompt")
	runCmd.Flags().StringVar(&runHarness, "harness", "", "harness kind (claude, codex, copilot)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model override passed to the harness")
	runCmd.Flags().IntVarP(&runMaxIterations, "max-iterations", "n", 0, "maximum iterations for this run")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-iteration timeout (e.g. 10m); 0 means no limit")
	runCmd.Flags().BoolVar(&runStopOnFailure, "stop-on-failure", false, "stop the run when an iteration reports blocked")
	runCmd.Flags().BoolVar(&runNoEvents, "no-events", false, "skip mirroring events to the database")
	runCmd.Flags().BoolVar(&runNoLedger, "no-ledger", false, "skip the markdown ledger")
}

func runLoopCmd(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ref := models.ChangeRef(args[0])
	if err := ref.Validate(); err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	root, err := resolveWorkingRoot(runRoot)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	prompt, err := resolvePrompt(runPrompt, runPromptFile)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	harnessName := cfg.LoopDefaults.Harness
	if cmd.Flags().Changed("harness") {
		harnessName = runHarness
	}
	kind, err := models.ParseHarnessKind(harnessName)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}
	if kind == models.HarnessStub {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("the stub harness is test-only and cannot be run")}
	}

	stop := models.StopCondition{
		MaxIterations:       cfg.LoopDefaults.MaxIterations,
		TimeoutPerIteration: cfg.LoopDefaults.IterationTimeout,
		StopOnFailure:       cfg.LoopDefaults.StopOnFailure,
	}
	if cmd.Flags().Changed("max-iterations") {
		stop.MaxIterations = runMaxIterations
	}
	if cmd.Flags().Changed("timeout") {
		stop.TimeoutPerIteration = runTimeout
	}
	if cmd.Flags().Changed("stop-on-failure") {
		stop.StopOnFailure = runStopOnFailure
	}

	st, err := store.New(root)
	if err != nil {
		return err
	}

	emitter, cleanup, err := buildEmitter(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctrl := loop.NewController(st, harness.NewSubprocess())
	ctrl.Emitter = emitter
	ctrl.PromptTailIterations = cfg.LoopDefaults.PromptTailIterations
	if !runNoLedger {
		ctrl.Ledger = ledger.New(root, ref)
	}

	ctx, cancel := loop.SignalContext(cmd.Context())
	defer cancel()
	go func() {
		// After the first signal, restore default delivery so a second
		// Ctrl-C terminates the process immediately.
		<-ctx.Done()
		cancel()
	}()

	state, err := ctrl.Run(ctx, loop.Request{
		ChangeRef:    ref,
		Prompt:       prompt,
		Harness:      kind,
		Model:        runModel,
		Stop:         stop,
		CaptureLimit: cfg.LoopDefaults.CaptureLimitBytes,
	})
	if err != nil {
		return err
	}

	printRunSummary(state)

	if code := exitCodeForStatus(state.Status); code != 0 {
		return &ExitError{Code: code, Printed: true}
	}
	return nil
}

func resolveWorkingRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve working root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("working root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working root %s is not a directory", abs)
	}
	return abs, nil
}

func resolvePrompt(text, file string) (string, error) {
	if text != "" && file != "" {
		return "", fmt.Errorf("--prompt and --prompt-file are mutually exclusive")
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("a prompt is required (--prompt or --prompt-file)")
	}
	return text, nil
}

// buildEmitter wires the log sink plus, when enabled, the database mirror.
// The returned cleanup closes the database.
func buildEmitter(cmd *cobra.Command, cfg *config.Config) (events.Emitter, func(), error) {
	sinks := events.Multi{events.NewLog()}
	cleanup := func() {}

	if cfg.Events.Enabled && !runNoEvents {
		database, err := db.Open(db.Config{
			Path:          cfg.DatabasePath(),
			BusyTimeoutMs: cfg.Events.BusyTimeoutMs,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open events database: %w", err)
		}
		if err := database.Migrate(cmd.Context()); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("migrate events database: %w", err)
		}
		sinks = append(sinks, events.NewRecorded(db.NewEventRepository(database)))
		cleanup = func() { database.Close() }
	}

	return sinks, cleanup, nil
}
