package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/report"
	"github.com/mvreilly/daydeck/internal/store"
	"github.com/mvreilly/daydeck/internal/task"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completion stats over recent days",
	Long: `Fetch the last N day documents ending at --date and print a table of
completed counts and estimated versus actual minutes. Days with no tasks
are skipped.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "n", 7, "Number of days to include")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	date := resolveDate()
	end, err := time.Parse(task.DateFormat, date)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	docs, err := store.History(cmd.Context(), st, end, historyDays)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.History(docs))
	return nil
}
