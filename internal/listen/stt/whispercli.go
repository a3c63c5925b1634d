// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     stt
// Description: Local transcription via the whisper.cpp CLI
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aurisproject/auris/internal/audio"
)

// WhisperCLI transcribes by invoking the whisper.cpp command-line binary.
type WhisperCLI struct {
	binaryPath string
	modelPath  string
	language   string
	sampleRate int
	tempDir    string
}

// NewWhisperCLI creates a CLI transcriber. It fails when the binary or
// the model file cannot be found, which is what lets the selector fall
// through to the next engine.
func NewWhisperCLI(cfg Config) (*WhisperCLI, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = findWhisperBinary()
	}
	if binaryPath == "" {
		return nil, fmt.Errorf("whisper binary not found")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	tempDir, err := os.MkdirTemp("", "auris-whisper-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	return &WhisperCLI{
		binaryPath: binaryPath,
		modelPath:  cfg.ModelPath,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		tempDir:    tempDir,
	}, nil
}

// findWhisperBinary checks PATH first, then common install locations.
func findWhisperBinary() string {
	if path, err := exec.LookPath("whisper-cli"); err == nil {
		return path
	}
	if path, err := exec.LookPath("whisper"); err == nil {
		return path
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/opt/homebrew/bin/whisper",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Transcribe writes the samples to a temp WAV file and transcribes it.
func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	wavPath := filepath.Join(w.tempDir, fmt.Sprintf("audio_%d.wav", time.Now().UnixNano()))
	if err := audio.WriteWAVFile(wavPath, samples, w.sampleRate); err != nil {
		return Result{}, fmt.Errorf("writing WAV file: %w", err)
	}
	defer os.Remove(wavPath)

	return w.TranscribeFile(ctx, wavPath, language)
}

// TranscribeFile transcribes an audio file from disk.
func (w *WhisperCLI) TranscribeFile(ctx context.Context, path, language string) (Result, error) {
	lang := w.language
	if language != "" {
		lang = language
	}

	args := []string{
		"--model", w.modelPath,
		"--language", lang,
		"--no-prints",
		"--output-txt",
		"--output-file", "-",
		path,
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Older whisper.cpp builds use short flags.
		args2 := []string{"-m", w.modelPath, "-l", lang, "-np", path}
		cmd2 := exec.CommandContext(ctx, w.binaryPath, args2...)
		stdout.Reset()
		stderr.Reset()
		cmd2.Stdout = &stdout
		cmd2.Stderr = &stderr

		if err2 := cmd2.Run(); err2 != nil {
			return Result{}, fmt.Errorf("whisper failed: %w, stderr: %s", err, stderr.String())
		}
	}

	return Result{
		Text:     cleanTranscript(stdout.String()),
		Language: lang,
		Engine:   w.Name(),
	}, nil
}

// Name identifies the engine.
func (w *WhisperCLI) Name() string { return "whisper-cli" }

// Close removes the temp directory.
func (w *WhisperCLI) Close() error {
	if w.tempDir != "" {
		os.RemoveAll(w.tempDir)
	}
	return nil
}
