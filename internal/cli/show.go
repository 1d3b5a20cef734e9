package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/report"
	"github.com/mvreilly/daydeck/internal/task"
)

var showFilter string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the day board",
	Long: `Fetch the day document and print its tasks grouped by time block,
with the derived completion summary. When the store is unreachable and
the cache is enabled, the last cached copy is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFilter, "filter", "f", "", "Only show tasks whose category or tags match this glob (e.g. 'work*', '**/deep')")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	date := resolveDate()
	if !task.ValidDate(date) {
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

	tasks, err := st.FetchDay(cmd.Context(), date)
	if err != nil {
		return err
	}
	tasks, err = report.FilterTasks(tasks, showFilter)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Day(date, tasks))
	return nil
}
