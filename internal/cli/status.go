package cli

import (
	"github.com/spf13/cobra"

	"github.com/ralphloop/ralph/internal/models"
	"github.com/ralphloop/ralph/internal/store"
)

var statusRoot string

var statusCmd = &cobra.Command{
	Use:   "status <change-ref>",
	Short: "Show the persisted loop state for a change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := models.ChangeRef(args[0])
		if err := ref.Validate(); err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		root, err := resolveWorkingRoot(statusRoot)
		if err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		st, err := store.New(root)
		if err != nil {
			return err
		}
		state, err := st.Load(ref)
		if err != nil {
			return err
		}

		printStateStatus(state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusRoot, "root", "", "working root directory (default: current directory)")
}
