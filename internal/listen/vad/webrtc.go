// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     vad
// Description: WebRTC speech detector
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCDetector classifies blocks with the WebRTC voice activity
// detector. It is sharper than the energy detector in noisy rooms but only
// supports the standard telephony sample rates.
type WebRTCDetector struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCDetector creates a WebRTC detector.
func NewWebRTCDetector(cfg Config) (*WebRTCDetector, error) {
	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("webrtc vad does not support sample rate %d", cfg.SampleRate)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create webrtc vad: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set vad mode: %w", err)
	}

	return &WebRTCDetector{vad: v, sampleRate: cfg.SampleRate}, nil
}

// IsSpeech classifies one block. The block is cut into 10ms frames; any
// active frame marks the whole block as speech.
func (d *WebRTCDetector) IsSpeech(samples []float32) (bool, error) {
	frameSize := d.sampleRate / 100

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}

	if len(pcm) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, pcm)
		pcm = padded
	}

	for i := 0; i+frameSize <= len(pcm); i += frameSize {
		frame := pcm[i : i+frameSize]
		buf := make([]byte, len(frame)*2)
		for j, s := range frame {
			buf[j*2] = byte(s)
			buf[j*2+1] = byte(s >> 8)
		}

		active, err := d.vad.Process(d.sampleRate, buf)
		if err != nil {
			return false, fmt.Errorf("vad processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

// Close releases resources.
func (d *WebRTCDetector) Close() error {
	return nil
}
