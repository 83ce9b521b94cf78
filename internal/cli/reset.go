package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ralphloop/ralph/internal/models"
	"github.com/ralphloop/ralph/internal/store"
)

var (
	resetRoot  string
	resetPurge bool
)

var resetCmd = &cobra.Command{
	Use:   "reset <change-ref>",
	Short: "Reset a terminated run back to idle",
	Long: `Reset moves a terminated run back to idle so the loop can be started
again. History is kept; a new run resumes at the next iteration index.

With --purge the change's state directory is deleted entirely, history
included.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := models.ChangeRef(args[0])
		if err := ref.Validate(); err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		root, err := resolveWorkingRoot(resetRoot)
		if err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		st, err := store.New(root)
		if err != nil {
			return err
		}

		if resetPurge {
			if err := os.RemoveAll(st.Dir(ref)); err != nil {
				return fmt.Errorf("purge state: %w", err)
			}
			fmt.Printf("%s: state purged\n", ref)
			return nil
		}

		state, err := st.Load(ref)
		if err != nil {
			return err
		}
		if !state.Status.Terminal() {
			return fmt.Errorf("change %s is %s; only terminated runs can be reset", ref, state.Status)
		}
		if err := st.SetStatus(state, models.StatusIdle); err != nil {
			return err
		}

		fmt.Printf("%s: reset to %s (%d iteration(s) kept)\n", ref, state.Status, state.IterationCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVar(&resetRoot, "root", "", "working root directory (default: current directory)")
	resetCmd.Flags().BoolVar(&resetPurge, "purge", false, "delete the change's state directory entirely")
}
