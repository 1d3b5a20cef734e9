package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live day board",
	Long: `Open the interactive day board. The board reflects every confirmed
edit pushed by other writers, overlays your own unconfirmed edits, and
retries failed writes in the background.

Keys: arrows move, space grabs a task, enter drops it into the
highlighted time block, c completes, r retries failed writes, x
dismisses them, ? shows help, q quits.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	logger := logging.New("watch")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	// The bridge coalesces engine change callbacks into UI refresh
	// messages; wire it before any snapshot can arrive unseen.
	bridge := tui.NewRefreshBridge()
	sess.SetOnChange(bridge.Notify)

	logger.Info("opening day board", "date", sess.Date())

	// Logging would tear the alternate screen; keep it out of the way.
	logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err == nil {
		defer logFile.Close()
		logging.SetOutput(logFile)
	}

	board := tui.NewBoard(ctx, sess, bridge)
	p := tea.NewProgram(board, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running day board: %w", err)
	}
	return nil
}
