// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: Text-to-speech engines and their selection policy
// License:     MIT
// ============================================================================

package tts

import (
	"context"
)

// Request is one utterance to speak.
type Request struct {
	Text  string
	Voice string // empty uses the engine default
	Rate  int    // words per minute, 0 uses the engine default
}

// Voice describes a selectable voice.
type Voice struct {
	Name        string `json:"name"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

// Synthesizer speaks text through the local audio output.
type Synthesizer interface {
	// Speak synthesizes and plays the utterance, returning when
	// playback has finished.
	Speak(ctx context.Context, req Request) error

	// Voices lists the voices this engine offers.
	Voices(ctx context.Context) ([]Voice, error)

	// Name identifies the engine.
	Name() string

	// Close releases resources.
	Close() error
}
