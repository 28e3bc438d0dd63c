// Ibuslink is a FlySky IBus receiver companion for the desktop.
//
// It decodes the servo channel stream coming out of an IBus receiver's
// serial port, answers sensor telemetry polls, and presents the live
// state either as a terminal monitor or as a WebSocket dashboard
// server. A built-in demo source generates synthetic traffic so
// everything can be tried without hardware.
//
// Usage:
//
//	ibuslink [command] [flags]
//
// Running without arguments launches the terminal monitor.
// See 'ibuslink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcwire/ibuslink/internal/logging"
	"github.com/rcwire/ibuslink/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ibuslink",
	Short: "FlySky IBus channel monitor and telemetry responder",
	Long: `Decode the IBus servo stream from a FlySky-compatible receiver.

Reads channel frames from a serial port, answers sensor telemetry polls
from the transmitter, and shows the live channel and sensor state in a
terminal monitor or on a WebSocket dashboard.

If no command is specified, the terminal monitor will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the monitor when no subcommand provided
		return runMonitor(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ibuslink %s (commit: %s)\n", version.Version, version.Commit)
	},
}
