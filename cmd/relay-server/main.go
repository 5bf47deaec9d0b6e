package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
	commit     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Relay conversational video sessions between the game front-end and Tavus",
	Long: `relay-server creates and tears down Tavus conversations on behalf of the
game front-end and remembers which conversation belongs to which user.

Running without a subcommand starts the HTTP server.`,
	Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to relay.yaml (defaults to $RELAY_CONFIG_FILE, then ./relay.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(serveCmd, healthcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
