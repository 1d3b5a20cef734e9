package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/task"
)

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage a task's subtasks",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task> <title>",
	Short: "Append a subtask",
	Long: `Append a subtask to a task. Once a task has subtasks its progress is
derived from the completed count and can no longer be set directly.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubtaskAdd,
}

var subtaskToggleCmd = &cobra.Command{
	Use:   "toggle <task> <subtask>",
	Short: "Toggle a subtask's completed flag",
	Long: `Flip a subtask between completed and open. Completing the last open
subtask completes the parent task; reopening a subtask of a completed
task moves it back to in_progress.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubtaskToggle,
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd)
	subtaskCmd.AddCommand(subtaskToggleCmd)
	rootCmd.AddCommand(subtaskCmd)
}

func runSubtaskAdd(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	taskID, err := resolveTaskID(sess.EffectiveView(), args[0])
	if err != nil {
		return err
	}

	t, err := sess.AddSubtask(cmd.Context(), taskID, args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added subtask to %q (%d total)\n", t.Title, len(t.Subtasks))
	return nil
}

func runSubtaskToggle(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	view := sess.EffectiveView()
	taskID, err := resolveTaskID(view, args[0])
	if err != nil {
		return err
	}

	subtaskID, err := resolveSubtaskID(view, taskID, args[1])
	if err != nil {
		return err
	}

	t, err := sess.ToggleSubtask(cmd.Context(), taskID, subtaskID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%q is now %d%% (%s)\n", t.Title, t.Progress, t.Status)
	return nil
}

// resolveSubtaskID matches an argument against a task's subtasks by ID,
// ID prefix, or case-insensitive title prefix.
func resolveSubtaskID(tasks []task.Task, taskID, arg string) (string, error) {
	var parent *task.Task
	for i := range tasks {
		if tasks[i].ID == taskID {
			parent = &tasks[i]
			break
		}
	}
	if parent == nil {
		return "", fmt.Errorf("no task matches %q", taskID)
	}

	var matches []task.Subtask
	lower := strings.ToLower(arg)
	for _, st := range parent.Subtasks {
		if st.ID == arg {
			return st.ID, nil
		}
		if strings.HasPrefix(st.ID, arg) || strings.HasPrefix(strings.ToLower(st.Title), lower) {
			matches = append(matches, st)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		return "", fmt.Errorf("no subtask of %q matches %q", parent.Title, arg)
	default:
		return "", fmt.Errorf("%q matches %d subtasks of %q", arg, len(matches), parent.Title)
	}
}
