package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/task"
)

var pushFile string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Replace the day's tasks from a plan file",
	Long: `Read a structured day plan from a JSON file and write it to the store
as the whole day document, replacing whatever is stored for the date.
The file holds either an array of tasks or a day document object with a
"tasks" field. Missing IDs, defaults, and derived fields are filled in
on import.`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "Path to the day-plan JSON file (required)")
	_ = pushCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, _ []string) error {
	date := resolveDate()
	if !task.ValidDate(date) {
		return &task.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	data, err := os.ReadFile(pushFile)
	if err != nil {
		return fmt.Errorf("reading plan file: %w", err)
	}
	tasks, err := decodePlan(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", pushFile, err)
	}

	now := time.Now()
	for i := range tasks {
		if err := task.PrepareImport(&tasks[i], now); err != nil {
			return fmt.Errorf("task %d in %s: %w", i+1, pushFile, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	if err := st.ReplaceDay(cmd.Context(), date, tasks); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pushed %d tasks to %s\n", len(tasks), date)
	return nil
}

// decodePlan accepts either a bare task array or a whole day-document
// object; the document's own date field, if any, is ignored in favor of
// --date.
func decodePlan(data []byte) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err == nil {
		return tasks, nil
	}

	var doc struct {
		Tasks []task.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}
