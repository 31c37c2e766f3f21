// Octanews is a command line client for authenticated WebSocket messaging endpoints.
//
// It signs in with a client ID and secret, opens a WebSocket session with the
// issued session cookie, and keeps the session alive, reconnecting and signing
// in again when the endpoint drops it. A local simulator and mDNS discovery
// help with testing.
//
// Usage:
//
//	octanews [command] [flags]
//
// See 'octanews --help' for available commands.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/muurk/octanews/internal/config"
	"github.com/muurk/octanews/internal/logging"
	"github.com/muurk/octanews/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string

	// settings is the configuration file merged with flags, loaded before each command
	settings *config.File
)

var rootCmd = &cobra.Command{
	Use:   "octanews",
	Short: "Authenticated WebSocket messaging client",
	Long: `A client for WebSocket messaging endpoints that authenticate with a
session cookie.

octanews signs in at /authentication/sign_in on the endpoint host, opens the
WebSocket session with the issued cookie, and keeps it alive: the session is
pinged every keep-alive interval and re-established (signing in again if the
endpoint rejects the cookie) whenever it drops.

Connection settings come from the configuration file (see 'octanews config init')
and can be overridden with flags.`,
	Version:           version.Full(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default is the platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(versionCmd)
}

func loadSettings(cmd *cobra.Command, args []string) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = f.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	settings = f
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("octanews %s %s %s/%s\n", info, info.GoVersion, runtime.GOOS, runtime.GOARCH)
	},
}
