package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/drag"
	"github.com/mvreilly/daydeck/internal/task"
)

var moveCmd = &cobra.Command{
	Use:   "move <task> <morning|afternoon|evening>",
	Short: "Move a task to another time block",
	Long: `Relocate a task into a time block. Moving a task to the block it is
already in changes nothing and writes nothing.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	block := task.TimeBlock(args[1])
	if !block.IsValid() {
		return fmt.Errorf("unknown time block %q (want morning, afternoon, or evening)", args[1])
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

	resolver := drag.NewResolver(sess.BucketOf, sess.Tracker())
	resolver.Start(taskID)
	moved := resolver.DropOnBucket(block)
	if !moved {
		fmt.Fprintf(cmd.OutOrStdout(), "task %s is already in %s\n", shortID(taskID), block)
		return nil
	}

	if err := awaitWrite(sess, taskID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "moved task %s to %s\n", shortID(taskID), block)
	return nil
}
