// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     stt
// Description: Speech-to-text engines and their selection policy
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"strings"
)

// Result holds a transcription.
type Result struct {
	Text     string
	Language string
	Engine   string
}

// Transcriber converts audio to text. A non-empty language overrides
// the engine's configured default for that call.
type Transcriber interface {
	// Transcribe converts mono float32 samples to text.
	Transcribe(ctx context.Context, samples []float32, language string) (Result, error)

	// TranscribeFile transcribes an audio file from disk.
	TranscribeFile(ctx context.Context, path, language string) (Result, error)

	// Name identifies the engine.
	Name() string

	// Close releases resources.
	Close() error
}

// Config holds settings shared by the local whisper engines.
type Config struct {
	Language   string
	SampleRate int
	BinaryPath string // whisper-cli binary, empty means search
	ModelPath  string
	ServerURL  string
}

// cleanTranscript strips whisper timestamp prefixes of the form
// [00:00:00.000 --> 00:00:05.000] and joins the remaining lines.
func cleanTranscript(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, " ")
}
