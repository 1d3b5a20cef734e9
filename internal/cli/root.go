package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
	flagDate    string
	flagNoColor bool
)

// rootCmd is the base command for daydeck.
var rootCmd = &cobra.Command{
	Use:   "daydeck",
	Short: "Day-document task tracker with optimistic sync",
	Long: `Daydeck tracks one day's tasks in a remote document store, keeps a
local cache for offline reads, and reconciles concurrent edits through
realtime snapshots. Run it without a subcommand to print today's board;
run "daydeck watch" for the live interactive view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// When invoked with no subcommand, print the day board.
	// Help is still available via `daydeck --help` / `daydeck -h`.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd, args)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check env vars for flags not explicitly set on command line.
		if !cmd.Flags().Changed("verbose") && os.Getenv("DAYDECK_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("DAYDECK_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("DAYDECK_NO_COLOR") != "") {
			flagNoColor = true
		}
		if !cmd.Flags().Changed("date") && os.Getenv("DAYDECK_DATE") != "" {
			flagDate = os.Getenv("DAYDECK_DATE")
		}

		// Initialize logging.
		jsonFormat := os.Getenv("DAYDECK_LOG_FORMAT") == "json"
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)

		// Handle --no-color: disable colored output.
		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: DAYDECK_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: DAYDECK_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to daydeck.toml config file")
	rootCmd.PersistentFlags().StringVarP(&flagDate, "date", "d", "", "Day to operate on, YYYY-MM-DD (default: today; env: DAYDECK_DATE)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output (env: DAYDECK_NO_COLOR, NO_COLOR)")
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// NewRootCmd returns a new instance of the root command for use in external
// tools such as the shell completion generator and man page generator. It
// initialises a fresh cobra command tree with the same persistent flags and
// PersistentPreRunE as the global rootCmd so that generated docs and
// completions include all flags.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               rootCmd.Use,
		Short:             rootCmd.Short,
		Long:              rootCmd.Long,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootCmd.PersistentPreRunE,
	}

	// Register the same persistent flags that the global rootCmd carries.
	// These use local variables (not the package-level flags) so the
	// exported command is safe for concurrent use by generators.
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) output (env: DAYDECK_VERBOSE)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors (env: DAYDECK_QUIET)")
	cmd.PersistentFlags().String("config", "", "Path to daydeck.toml config file")
	cmd.PersistentFlags().StringP("date", "d", "", "Day to operate on, YYYY-MM-DD (default: today; env: DAYDECK_DATE)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output (env: DAYDECK_NO_COLOR, NO_COLOR)")

	// Attach all registered subcommands from the global tree.
	for _, child := range rootCmd.Commands() {
		cmd.AddCommand(child)
	}
	return cmd
}
