package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurisproject/auris/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "auris-listen",
	Short: "auris-listen - microphone capture and transcription tool service",
	Long: `auris-listen exposes microphone capture and speech-to-text as MCP
tools over stdio. An AI assistant connects to it and calls:

  listen             record and transcribe
  listen_raw         record and return base64 WAV
  transcribe         transcribe an audio file
  get_audio_devices  list input devices

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
