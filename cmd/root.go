// Package cmd provides the CLI commands for the FocusFlow application.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	configPath string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focusflow",
	Short: "FocusFlow - focus sessions, a task board and analytics",
	Long: `FocusFlow rotates focus sessions with short and long breaks, tracks
tasks on a kanban board, logs distractions and reports on your habits.

Run "focusflow" with no arguments to open the terminal timer, or
"focusflow serve" to run the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runTimer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the command tree with args. Resources are released even
// when the command fails.
func run(args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if cerr := cleanupServices(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.focusflow/focusflow.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.focusflow/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	addTimerFlags(rootCmd)

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("FocusFlow\nVersion: {{.Version}}\nBuilt: %s (%s)\n", BuildDate, GitCommit))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(distractCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	for _, c := range timerControlCmds() {
		rootCmd.AddCommand(c)
	}
}

// printJSON writes v indented, the shape every --json output uses.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
