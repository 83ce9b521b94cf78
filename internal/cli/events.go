package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralphloop/ralph/internal/db"
	"github.com/ralphloop/ralph/internal/models"
)

var (
	eventsChange string
	eventsLimit  int
	eventsPrune  time.Duration
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded audit events",
	Long: `Events lists recent audit events from the database, newest first.
Use --change to filter by change ref and --prune to delete events older
than a duration (e.g. --prune 720h).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		ref := models.ChangeRef(eventsChange)
		if eventsChange != "" {
			if err := ref.Validate(); err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}
		}

		database, err := db.Open(db.Config{
			Path:          cfg.DatabasePath(),
			BusyTimeoutMs: cfg.Events.BusyTimeoutMs,
		})
		if err != nil {
			return fmt.Errorf("open events database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate events database: %w", err)
		}

		repo := db.NewEventRepository(database)

		if cmd.Flags().Changed("prune") {
			if eventsPrune <= 0 {
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("--prune requires a positive duration")}
			}
			deleted, err := repo.PruneOlderThan(cmd.Context(), time.Now().Add(-eventsPrune))
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d event(s)\n", deleted)
			return nil
		}

		list, err := repo.ListRecent(cmd.Context(), ref, eventsLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(list)
			return nil
		}
		if len(list) == 0 {
			fmt.Println("no events recorded")
			return nil
		}
		for _, event := range list {
			line := fmt.Sprintf("%s  %-20s %s", event.CreatedAt.Local().Format(time.RFC3339), event.Type, event.ChangeRef)
			if event.IterationIndex > 0 {
				line += fmt.Sprintf(" iteration=%d", event.IterationIndex)
			}
			if event.Verdict != "" {
				line += fmt.Sprintf(" verdict=%s", event.Verdict)
			}
			if event.Status != "" {
				line += fmt.Sprintf(" status=%s", event.Status)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsChange, "change", "", "filter by change ref")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to list")
	eventsCmd.Flags().DurationVar(&eventsPrune, "prune", 0, "delete events older than this duration instead of listing")
}
