// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     audio
// Description: Audio playback using PortAudio
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ErrDeviceBusy is returned when the audio device is already held by
// another operation in this process.
var ErrDeviceBusy = errors.New("audio device is busy")

// Playback writes PCM audio to the default output device. Only one
// playback runs at a time; concurrent calls get ErrDeviceBusy instead
// of queueing.
type Playback struct {
	mu       sync.Mutex
	channels int
}

// NewPlayback creates a playback instance.
func NewPlayback() *Playback {
	return &Playback{channels: DefaultChannels}
}

// PlayRaw plays raw PCM S16LE data at the given sample rate.
func (p *Playback) PlayRaw(data []byte, sampleRate float64) error {
	if !p.mu.TryLock() {
		return ErrDeviceBusy
	}
	defer p.mu.Unlock()

	numSamples := len(data) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(s) / 32768.0
	}

	return p.playFloat32(samples, sampleRate)
}

func (p *Playback) playFloat32(samples []float32, sampleRate float64) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	bufferSize := 1024
	buffer := make([]float32, bufferSize)

	stream, err := portaudio.OpenDefaultStream(
		0, p.channels, sampleRate, bufferSize, &buffer)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	for position := 0; position < len(samples); position += bufferSize {
		for i := 0; i < bufferSize; i++ {
			if position+i < len(samples) {
				buffer[i] = samples[position+i]
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}
	return nil
}

// PlayWAVFile plays a WAV file through the default output device.
func (p *Playback) PlayWAVFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	rate, pcm, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("parsing WAV: %w", err)
	}
	return p.PlayRaw(pcm, float64(rate))
}

// PlayWAV plays in-memory WAV data through the default output device.
func (p *Playback) PlayWAV(data []byte) error {
	rate, pcm, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("parsing WAV: %w", err)
	}
	return p.PlayRaw(pcm, float64(rate))
}
