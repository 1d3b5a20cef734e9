package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mvreilly/daydeck/internal/task"
)

var updateFlags struct {
	title    string
	desc     string
	status   string
	progress int
	priority string
	category string
	estimate int
	actual   int
	block    string
	criteria string
	tags     []string
}

var updateCmd = &cobra.Command{
	Use:   "update <task>",
	Short: "Update fields of a task",
	Long: `Apply a partial update to a task, identified by its ID, a unique ID
prefix, or a unique title prefix. Only the fields named by flags change.

The update is written through the retry scheduler: a transient store
failure is retried with exponential backoff before the command reports
an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateFlags.title, "title", "t", "", "New title")
	updateCmd.Flags().StringVar(&updateFlags.desc, "desc", "", "New description")
	updateCmd.Flags().StringVarP(&updateFlags.status, "status", "s", "", "New status (not_started, in_progress, completed, blocked, cancelled)")
	updateCmd.Flags().IntVar(&updateFlags.progress, "progress", 0, "Progress percentage (0-100)")
	updateCmd.Flags().StringVarP(&updateFlags.priority, "priority", "p", "", "New priority (P1, P2, P3)")
	updateCmd.Flags().StringVarP(&updateFlags.category, "category", "c", "", "New category")
	updateCmd.Flags().IntVarP(&updateFlags.estimate, "estimate", "e", 0, "Estimated minutes")
	updateCmd.Flags().IntVarP(&updateFlags.actual, "actual", "a", 0, "Actual minutes spent")
	updateCmd.Flags().StringVarP(&updateFlags.block, "block", "b", "", "Time block (morning, afternoon, evening; empty clears)")
	updateCmd.Flags().StringVar(&updateFlags.criteria, "criteria", "", "Success criteria")
	updateCmd.Flags().StringArrayVar(&updateFlags.tags, "tag", nil, "Replace tags (repeatable)")
	rootCmd.AddCommand(updateCmd)
}

// updateFromFlags builds the partial update from the flags the user
// actually set, so unset flags leave their fields untouched.
func updateFromFlags(f *pflag.FlagSet) task.PartialUpdate {
	var u task.PartialUpdate

	if f.Changed("title") {
		u.Title = &updateFlags.title
	}
	if f.Changed("desc") {
		u.Description = &updateFlags.desc
	}
	if f.Changed("status") {
		s := task.Status(updateFlags.status)
		u.Status = &s
	}
	if f.Changed("progress") {
		u.Progress = &updateFlags.progress
	}
	if f.Changed("priority") {
		p := task.Priority(updateFlags.priority)
		u.Priority = &p
	}
	if f.Changed("category") {
		c := task.Category(updateFlags.category)
		u.Category = &c
	}
	if f.Changed("estimate") {
		u.EstimatedMinutes = &updateFlags.estimate
	}
	if f.Changed("actual") {
		u.ActualMinutes = &updateFlags.actual
	}
	if f.Changed("block") {
		b := task.TimeBlock(updateFlags.block)
		u.TimeBlock = &b
	}
	if f.Changed("criteria") {
		u.SuccessCriteria = &updateFlags.criteria
	}
	if f.Changed("tag") {
		u.Tags = &updateFlags.tags
	}
	return u
}

func runUpdate(cmd *cobra.Command, args []string) error {
	u := updateFromFlags(cmd.Flags())
	if u.IsZero() {
		return fmt.Errorf("nothing to update: set at least one field flag")
	}

	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	taskID, err := resolveTaskID(sess.EffectiveView(), args[0])
	if err != nil {
		return err
	}

	t, err := sess.UpdateTask(taskID, u)
	if err != nil {
		return err
	}

	if err := awaitWrite(sess, taskID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "updated %q (%s)\n", t.Title, shortID(t.ID))
	return nil
}
