// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection for the capture loop
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"
	"time"
)

// Detector decides, per analysis block, whether the block contains speech.
type Detector interface {
	// IsSpeech classifies one block of mono float32 samples.
	IsSpeech(samples []float32) (bool, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	// SampleRate is the capture sample rate (8000, 16000, 32000 or 48000
	// for the webrtc detector).
	SampleRate int

	// Threshold is the energy detector's RMS cutoff in int16 sample units.
	Threshold int

	// Mode is the webrtc detector's aggressiveness (0-3).
	Mode int
}

// New builds a detector by engine name. "energy" (or empty) selects the
// RMS detector, "webrtc" the WebRTC detector.
func New(engine string, cfg Config) (Detector, error) {
	switch engine {
	case "", "energy":
		return NewEnergyDetector(cfg), nil
	case "webrtc":
		return NewWebRTCDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown vad engine: %s", engine)
	}
}

// Tracker is the silence-termination state machine. Silence can only end a
// recording after speech has been heard at least once; a capture that never
// crosses the threshold runs to its full duration.
type Tracker struct {
	silenceNeeded time.Duration

	speechSeen bool
	silenceRun time.Duration
}

// NewTracker creates a tracker that stops after the given span of
// contiguous trailing silence.
func NewTracker(silenceNeeded time.Duration) *Tracker {
	return &Tracker{silenceNeeded: silenceNeeded}
}

// Observe feeds one block classification and its duration.
func (t *Tracker) Observe(isSpeech bool, blockLen time.Duration) {
	if isSpeech {
		t.speechSeen = true
		t.silenceRun = 0
		return
	}
	if t.speechSeen {
		t.silenceRun += blockLen
	}
}

// SpeechSeen reports whether any speech has been observed.
func (t *Tracker) SpeechSeen() bool {
	return t.speechSeen
}

// SilenceRun returns the current span of trailing silence after speech.
func (t *Tracker) SilenceRun() time.Duration {
	return t.silenceRun
}

// ShouldStop reports whether the trailing silence after speech has reached
// the configured span.
func (t *Tracker) ShouldStop() bool {
	return t.speechSeen && t.silenceRun >= t.silenceNeeded
}

// Reset clears the tracker for a new session.
func (t *Tracker) Reset() {
	t.speechSeen = false
	t.silenceRun = 0
}
