package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurisproject/auris/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		printError("listing devices", err)
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No audio input devices found.")
		return nil
	}

	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (%d ch, %.0f Hz)\n", marker, d.Index, d.Name, d.Channels, d.SampleRate)
	}
	return nil
}
