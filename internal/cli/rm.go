package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <task>",
	Short: "Remove a task from the day",
	Long: `Delete a task from the day document. Deletions are written through
synchronously; they are never retried in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	taskID, err := resolveTaskID(sess.EffectiveView(), args[0])
	if err != nil {
		return err
	}

	if err := sess.DeleteTask(cmd.Context(), taskID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed task %s from %s\n", shortID(taskID), sess.Date())
	return nil
}
