// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate is 16kHz, the rate Whisper models expect.
	DefaultSampleRate = 16000

	// DefaultChannels is mono audio.
	DefaultChannels = 1
)

// Microphone reads audio blocks from an input device. Each block holds
// roughly 100ms of mono float32 samples, which is the granularity the
// capture controller makes its silence decisions at.
type Microphone struct {
	mu         sync.RWMutex
	stream     *portaudio.Stream
	sampleRate int
	blockSize  int
	deviceName string
	running    bool
	blocks     chan []float32
}

// MicrophoneConfig holds configuration for microphone capture.
type MicrophoneConfig struct {
	SampleRate int
	DeviceName string // empty or "default" selects the system default
}

// NewMicrophone creates a microphone source. PortAudio is initialized
// here and released in Close.
func NewMicrophone(cfg MicrophoneConfig) (*Microphone, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	return &Microphone{
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.SampleRate / 10, // 100ms blocks
		deviceName: cfg.DeviceName,
		blocks:     make(chan []float32, 100),
	}, nil
}

// Start opens the input stream and begins pushing blocks.
func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("capture already running")
	}

	blocks := m.beginSession()
	buffer := make([]float32, m.blockSize)

	var stream *portaudio.Stream
	var err error

	if m.deviceName != "" && m.deviceName != "default" {
		device, findErr := findInputDevice(m.deviceName)
		if findErr != nil {
			// Fall back to the default device if the named one is gone.
			stream, err = portaudio.OpenDefaultStream(
				DefaultChannels, 0, float64(m.sampleRate), m.blockSize, buffer)
		} else {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: DefaultChannels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(m.sampleRate),
				FramesPerBuffer: m.blockSize,
			}
			stream, err = portaudio.OpenStream(params, buffer)
		}
	} else {
		stream, err = portaudio.OpenDefaultStream(
			DefaultChannels, 0, float64(m.sampleRate), m.blockSize, buffer)
	}
	if err != nil {
		return fmt.Errorf("opening audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting audio stream: %w", err)
	}

	m.stream = stream
	m.running = true

	go m.captureLoop(ctx, buffer, blocks)

	return nil
}

// beginSession swaps in a fresh block channel. The capture loop keeps
// queueing for a short window after the consumer stops reading, and
// those blocks must not leak into the next recording. Callers hold mu.
func (m *Microphone) beginSession() chan []float32 {
	m.blocks = make(chan []float32, 100)
	return m.blocks
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", name)
}

func (m *Microphone) captureLoop(ctx context.Context, buffer []float32, blocks chan<- []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			m.mu.RLock()
			if !m.running || m.stream == nil {
				m.mu.RUnlock()
				return
			}
			stream := m.stream
			m.mu.RUnlock()

			if err := stream.Read(); err != nil {
				m.mu.RLock()
				stillRunning := m.running
				m.mu.RUnlock()
				if !stillRunning {
					return
				}
				continue
			}

			block := make([]float32, len(buffer))
			copy(block, buffer)

			select {
			case blocks <- block:
			default:
				// Consumer is behind, drop this block.
			}
		}
	}
}

// Blocks returns the channel receiving the current session's ~100ms
// audio blocks. Each Start delivers a new channel.
func (m *Microphone) Blocks() <-chan []float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks
}

// Stop stops the stream. The microphone can be started again afterwards.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	if m.stream != nil {
		m.stream.Stop()
		if err := m.stream.Close(); err != nil {
			return fmt.Errorf("closing audio stream: %w", err)
		}
		m.stream = nil
	}
	return nil
}

// SampleRate returns the configured sample rate.
func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

// Close stops capture and releases PortAudio.
func (m *Microphone) Close() error {
	if err := m.Stop(); err != nil {
		return err
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminating portaudio: %w", err)
	}
	return nil
}
