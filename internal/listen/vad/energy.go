// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     vad
// Description: RMS energy speech detector
// License:     MIT
// ============================================================================

package vad

import (
	"math"
)

// EnergyDetector classifies blocks by root-mean-square amplitude. A block
// with rms >= threshold is speech; rms < threshold is silence. The
// threshold is expressed in int16 sample units so configurations carry over
// from 16-bit PCM tooling unchanged.
type EnergyDetector struct {
	threshold float64
}

// NewEnergyDetector creates an energy detector with the given RMS cutoff.
func NewEnergyDetector(cfg Config) *EnergyDetector {
	return &EnergyDetector{threshold: float64(cfg.Threshold)}
}

// IsSpeech classifies one block of mono samples.
func (d *EnergyDetector) IsSpeech(samples []float32) (bool, error) {
	if len(samples) == 0 {
		return false, nil
	}
	return RMS(samples) >= d.threshold, nil
}

// Close releases resources.
func (d *EnergyDetector) Close() error {
	return nil
}

// RMS computes the root-mean-square amplitude of mono float32 samples,
// scaled to int16 units.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) * 32767
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
