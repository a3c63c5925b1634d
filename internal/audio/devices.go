// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     audio
// Description: Audio device enumeration via PortAudio
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio device visible to PortAudio.
type Device struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sample_rate"`
	IsDefault  bool    `json:"is_default"`
}

// ListInputDevices enumerates capture-capable devices.
// PortAudio is initialized and terminated around the enumeration so the
// call is safe without any prior setup.
func ListInputDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defaultIn, _ := portaudio.DefaultInputDevice()

	var result []Device
	for i, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		result = append(result, Device{
			Index:      i,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			IsDefault:  defaultIn != nil && d.Name == defaultIn.Name,
		})
	}
	return result, nil
}
