package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	baseURL    string
	jsonOutput bool
	logLevel   string
	traceFile  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bidster",
	Short: "bidster is a terminal client for the Bidster auction marketplace",
	Long: `bidster lets you browse listings, bid, watch and comment on auctions,
and manage your own listings from the terminal.

Configuration can be provided via flags, environment variables (BIDSTER_*),
a local .bidsterrc.yaml or a global ~/.config/bidster/config.yaml.
Run 'bidster config' to see the effective values and where they came from.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Run()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bidster version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bidster %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

// Execute runs the command line in os.Args and exits on failure.
// This is called by main.main().
func Execute() {
	os.Exit(Run(os.Args[1:]))
}

// Run executes the command line args and returns the process exit code.
// Errors are printed to stderr with a hint where one applies.
func Run(args []string) int {
	return run(args, os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		return 1
	}
	return 0
}

func init() {
	// Define persistent flags that apply globally to all bidster commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Server root URL; the API is served under /api (default http://localhost:8000)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Append every log record, debug included, to this file as JSON")

	rootCmd.AddCommand(versionCmd)
}
