// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     capture
// Description: Duration- and silence-bounded microphone recording
// License:     MIT
// ============================================================================

package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/listen/vad"
)

var (
	// ErrDeviceBusy is returned when a recording is already in progress.
	ErrDeviceBusy = errors.New("microphone is busy")

	// ErrCancelled is returned when the context was cancelled mid-recording.
	ErrCancelled = errors.New("recording cancelled")
)

// Outcome says why a recording stopped.
type Outcome string

const (
	// StoppedByDuration means the requested duration elapsed.
	StoppedByDuration Outcome = "duration"

	// StoppedBySilence means speech was followed by enough trailing silence.
	StoppedBySilence Outcome = "silence"
)

// Source delivers audio blocks from a capture device. Each block holds
// roughly 100ms of mono float32 samples. Start must hand out a fresh
// Blocks channel per session; audio left over from an earlier session
// must never replay into the next one.
type Source interface {
	Start(ctx context.Context) error
	Blocks() <-chan []float32
	Stop() error
}

// Request describes one recording.
type Request struct {
	// Duration is the maximum recording length in seconds. Zero means
	// the configured default. Values are clamped to [1, MaxDuration].
	Duration float64

	// AutoStop enables stopping early after trailing silence once
	// speech has been heard.
	AutoStop bool
}

// Artifact is a finished recording.
type Artifact struct {
	SessionID      string
	Samples        []float32
	SampleRate     int
	Duration       float64
	Outcome        Outcome
	SpeechDetected bool
}

// Event is published to the monitor sink as a recording progresses.
type Event struct {
	SessionID string  `json:"session_id"`
	Type      string  `json:"type"` // started, speech, stopped, failed
	Elapsed   float64 `json:"elapsed"`
	Detail    string  `json:"detail,omitempty"`
}

// EventSink receives capture events. May be nil.
type EventSink interface {
	Publish(Event)
}

// Config holds recording bounds and silence parameters.
type Config struct {
	SampleRate      int
	DefaultDuration float64
	MaxDuration     float64
	SilenceDuration float64 // trailing silence in seconds before auto-stop
}

// Controller runs recordings against a single capture source. Only one
// recording runs at a time; a second caller gets ErrDeviceBusy.
type Controller struct {
	mu       sync.Mutex
	source   Source
	detector vad.Detector
	cfg      Config
	sink     EventSink
	logger   *zap.Logger
}

// NewController creates a capture controller.
func NewController(source Source, detector vad.Detector, cfg Config, sink EventSink, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source:   source,
		detector: detector,
		cfg:      cfg,
		sink:     sink,
		logger:   logger,
	}
}

// clampDuration applies the default and the [1, max] bound.
func (c *Controller) clampDuration(requested float64) float64 {
	d := requested
	if d == 0 {
		d = c.cfg.DefaultDuration
	}
	if d < 1 {
		d = 1
	}
	if d > c.cfg.MaxDuration {
		d = c.cfg.MaxDuration
	}
	return d
}

// Record captures audio until the duration elapses, trailing silence is
// detected (when AutoStop is set), or the context is cancelled. Elapsed
// time is derived from the captured sample count, not the wall clock;
// a wall clock timer only backstops a source that stops delivering.
func (c *Controller) Record(ctx context.Context, req Request) (*Artifact, error) {
	if !c.mu.TryLock() {
		return nil, ErrDeviceBusy
	}
	defer c.mu.Unlock()

	duration := c.clampDuration(req.Duration)
	sessionID := uuid.NewString()

	tracker := vad.NewTracker(time.Duration(c.cfg.SilenceDuration * float64(time.Second)))

	c.logger.Info("recording started",
		zap.String("session_id", sessionID),
		zap.Float64("duration", duration),
		zap.Bool("auto_stop", req.AutoStop))
	c.publish(Event{SessionID: sessionID, Type: "started"})

	if err := c.source.Start(ctx); err != nil {
		c.publish(Event{SessionID: sessionID, Type: "failed", Detail: err.Error()})
		return nil, fmt.Errorf("starting capture source: %w", err)
	}
	defer c.source.Stop()

	maxSamples := int(duration * float64(c.cfg.SampleRate))
	samples := make([]float32, 0, maxSamples)
	speechAnnounced := false

	// Wall clock backstop for a stalled device. A source that stops
	// delivering blocks without closing its channel would otherwise pin
	// the recording, and the device lock, indefinitely: the sample count
	// alone can never reach the bound. The grace second lets the sample
	// clock win on a healthy device.
	backstop := time.NewTimer(time.Duration(duration*float64(time.Second)) + time.Second)
	defer backstop.Stop()

	elapsed := func() float64 {
		return float64(len(samples)) / float64(c.cfg.SampleRate)
	}

	finish := func(outcome Outcome) (*Artifact, error) {
		art := &Artifact{
			SessionID:      sessionID,
			Samples:        samples,
			SampleRate:     c.cfg.SampleRate,
			Duration:       elapsed(),
			Outcome:        outcome,
			SpeechDetected: tracker.SpeechSeen(),
		}
		c.logger.Info("recording stopped",
			zap.String("session_id", sessionID),
			zap.String("outcome", string(outcome)),
			zap.Float64("elapsed", art.Duration),
			zap.Bool("speech", art.SpeechDetected))
		c.publish(Event{SessionID: sessionID, Type: "stopped",
			Elapsed: art.Duration, Detail: string(outcome)})
		return art, nil
	}

	for {
		select {
		case <-ctx.Done():
			c.publish(Event{SessionID: sessionID, Type: "failed",
				Elapsed: elapsed(), Detail: ErrCancelled.Error()})
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())

		case <-backstop.C:
			return finish(StoppedByDuration)

		case block, ok := <-c.source.Blocks():
			if !ok {
				c.publish(Event{SessionID: sessionID, Type: "failed",
					Elapsed: elapsed(), Detail: "capture source closed"})
				return nil, errors.New("capture source closed unexpectedly")
			}

			if remaining := maxSamples - len(samples); len(block) > remaining {
				block = block[:remaining]
			}
			samples = append(samples, block...)

			isSpeech, err := c.detector.IsSpeech(block)
			if err != nil {
				c.publish(Event{SessionID: sessionID, Type: "failed",
					Elapsed: elapsed(), Detail: err.Error()})
				return nil, fmt.Errorf("voice activity detection: %w", err)
			}
			blockDur := time.Duration(len(block)) * time.Second / time.Duration(c.cfg.SampleRate)
			tracker.Observe(isSpeech, blockDur)

			if isSpeech && !speechAnnounced {
				speechAnnounced = true
				c.publish(Event{SessionID: sessionID, Type: "speech", Elapsed: elapsed()})
			}

			if len(samples) >= maxSamples {
				return finish(StoppedByDuration)
			}
			if req.AutoStop && tracker.ShouldStop() {
				return finish(StoppedBySilence)
			}
		}
	}
}

func (c *Controller) publish(ev Event) {
	if c.sink != nil {
		c.sink.Publish(ev)
	}
}
