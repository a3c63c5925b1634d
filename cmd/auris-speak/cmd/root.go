package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurisproject/auris/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "auris-speak",
	Short: "auris-speak - text-to-speech tool service",
	Long: `auris-speak exposes speech synthesis as MCP tools over stdio. An AI
assistant connects to it and calls:

  say         speak text through the local audio output
  get_voices  list available voices and profiles

Running it without a subcommand starts the server.`,
	RunE: runServe,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
