// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: Local neural TTS via the Piper binary
// License:     MIT
// ============================================================================

package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Player plays raw PCM S16LE audio. Satisfied by audio.Playback.
type Player interface {
	PlayRaw(data []byte, sampleRate float64) error
}

// PiperConfig holds the piper engine settings.
type PiperConfig struct {
	BinaryPath string
	ModelPath  string // default voice model (.onnx)
	VoicesDir  string // optional directory of additional voice models
	SampleRate int
}

// Piper synthesizes with the piper binary and plays the raw PCM output.
type Piper struct {
	cfg        PiperConfig
	configPath string
	espeakData string
	player     Player
}

// NewPiper creates the piper engine. The binary, the model and its
// sidecar JSON config must all exist, otherwise construction fails and
// the selector falls through.
func NewPiper(cfg PiperConfig, player Player) (*Piper, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("piper binary path is required")
	}
	if _, err := os.Stat(cfg.BinaryPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("piper binary not found: %s", cfg.BinaryPath)
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	configPath := cfg.ModelPath + ".json"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model config not found: %s", configPath)
	}

	// espeak-ng-data ships next to the binary in piper release archives.
	espeakData := filepath.Join(filepath.Dir(cfg.BinaryPath), "espeak-ng-data")
	if _, err := os.Stat(espeakData); os.IsNotExist(err) {
		espeakData = ""
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}

	return &Piper{
		cfg:        cfg,
		configPath: configPath,
		espeakData: espeakData,
		player:     player,
	}, nil
}

// Speak synthesizes the text and plays it through the output device.
func (p *Piper) Speak(ctx context.Context, req Request) error {
	model, config, err := p.resolveVoice(req.Voice)
	if err != nil {
		return err
	}

	args := []string{
		"--model", model,
		"--config", config,
		"--output_raw",
	}
	if p.espeakData != "" {
		args = append(args, "--espeak_data", p.espeakData)
	}

	cmd := exec.CommandContext(ctx, p.cfg.BinaryPath, args...)
	cmd.Stdin = strings.NewReader(req.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Piper release builds expect to run from their own directory.
	cmd.Dir = filepath.Dir(p.cfg.BinaryPath)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DYLD_LIBRARY_PATH=%s", filepath.Dir(p.cfg.BinaryPath)),
	)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper failed: %w, stderr: %s", err, stderr.String())
	}

	return p.player.PlayRaw(stdout.Bytes(), float64(p.cfg.SampleRate))
}

// resolveVoice maps a voice name to a model and its config. An empty
// name selects the configured default model.
func (p *Piper) resolveVoice(voice string) (model, config string, err error) {
	if voice == "" {
		return p.cfg.ModelPath, p.configPath, nil
	}
	if p.cfg.VoicesDir == "" {
		return "", "", fmt.Errorf("no voices directory configured, cannot select voice %q", voice)
	}

	model = filepath.Join(p.cfg.VoicesDir, voice+".onnx")
	if _, statErr := os.Stat(model); os.IsNotExist(statErr) {
		return "", "", fmt.Errorf("voice not found: %s", voice)
	}
	config = model + ".json"
	if _, statErr := os.Stat(config); os.IsNotExist(statErr) {
		return "", "", fmt.Errorf("voice config not found: %s", config)
	}
	return model, config, nil
}

// Voices lists the .onnx models in the voices directory, plus the
// configured default.
func (p *Piper) Voices(ctx context.Context) ([]Voice, error) {
	defaultName := strings.TrimSuffix(filepath.Base(p.cfg.ModelPath), ".onnx")
	voices := []Voice{{Name: defaultName, Description: "default model"}}

	if p.cfg.VoicesDir == "" {
		return voices, nil
	}

	entries, err := os.ReadDir(p.cfg.VoicesDir)
	if err != nil {
		return nil, fmt.Errorf("reading voices directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".onnx")
		if name == defaultName {
			continue
		}
		voices = append(voices, Voice{Name: name})
	}
	return voices, nil
}

// Name identifies the engine.
func (p *Piper) Name() string { return "piper" }

// Close is a no-op.
func (p *Piper) Close() error { return nil }
