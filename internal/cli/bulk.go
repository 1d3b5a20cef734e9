package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <task>...",
	Short: "Apply one update to several tasks",
	Long: `Apply the same partial update to several tasks in a single document
write. Takes the same field flags as "daydeck update".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBulk,
}

func init() {
	// Bulk shares update's field flags; both build the same partial update.
	bulkCmd.Flags().AddFlagSet(updateCmd.Flags())
	rootCmd.AddCommand(bulkCmd)
}

func runBulk(cmd *cobra.Command, args []string) error {
	u := updateFromFlags(cmd.Flags())
	if u.IsZero() {
		return fmt.Errorf("nothing to update: set at least one field flag")
	}

	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	view := sess.EffectiveView()
	taskIDs := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := resolveTaskID(view, arg)
		if err != nil {
			return err
		}
		taskIDs = append(taskIDs, id)
	}

	updated, err := sess.BulkUpdateTasks(cmd.Context(), taskIDs, u)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "updated %d tasks on %s\n", len(updated), sess.Date())
	return nil
}
