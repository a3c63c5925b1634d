package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurisproject/auris/internal/audio"
	"github.com/aurisproject/auris/internal/speak/tts"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List voices offered by the active synthesis engine",
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("configuration", err)
		return err
	}

	selector := tts.NewSelector(tts.Options{
		Voice: cfg.Speak.Voice,
		Rate:  cfg.Speak.Rate,
		Piper: tts.PiperConfig{
			BinaryPath: cfg.Speak.Piper.BinaryPath,
			ModelPath:  cfg.Speak.Piper.ModelPath,
			VoicesDir:  cfg.Speak.Piper.VoicesDir,
			SampleRate: cfg.Speak.Piper.SampleRate,
		},
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.TTSModel,
		Player: audio.NewPlayback(),
	}, cfg.Speak.Engine)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	synth, err := selector.Resolve(ctx)
	if err != nil {
		printError("selecting engine", err)
		return err
	}

	voices, err := synth.Voices(ctx)
	if err != nil {
		printError("listing voices", err)
		return err
	}

	fmt.Printf("Engine: %s\n\n", synth.Name())
	for _, v := range voices {
		line := v.Name
		if v.Language != "" {
			line += "  (" + v.Language + ")"
		}
		if v.Description != "" {
			line += "  # " + v.Description
		}
		fmt.Println(line)
	}
	return nil
}
