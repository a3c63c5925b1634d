// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     server
// Description: Tool surface of the listen service
// License:     MIT
// ============================================================================

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/audio"
	"github.com/aurisproject/auris/internal/config"
	"github.com/aurisproject/auris/internal/history"
	"github.com/aurisproject/auris/internal/listen/capture"
	"github.com/aurisproject/auris/internal/listen/stt"
	"github.com/aurisproject/auris/pkg/core/engine"
	"github.com/aurisproject/auris/pkg/core/health"
	"github.com/aurisproject/auris/pkg/core/mcp"
	"github.com/aurisproject/auris/pkg/core/version"
)

// Recorder runs bounded microphone recordings.
type Recorder interface {
	Record(ctx context.Context, req capture.Request) (*capture.Artifact, error)
}

// Server exposes the listen tools over MCP.
type Server struct {
	cfg      config.ListenConfig
	logger   *zap.Logger
	recorder Recorder
	selector *engine.Selector[stt.Transcriber]
	store    history.Store // may be nil

	// listDevices is swappable for tests.
	listDevices func() ([]audio.Device, error)

	mcp *mcp.Server
}

// New assembles the listen server.
func New(cfg config.ListenConfig, recorder Recorder, selector *engine.Selector[stt.Transcriber], store history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		recorder:    recorder,
		selector:    selector,
		store:       store,
		listDevices: audio.ListInputDevices,
		mcp:         mcp.NewServer("auris-listen", version.Listen, logger),
	}
	s.registerTools()
	return s
}

// Serve runs the MCP loop until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Serve(ctx, os.Stdin, os.Stdout)
}

// RegisterHealth adds the listen service's checks to a health registry.
func (s *Server) RegisterHealth(reg *health.Registry) {
	reg.RegisterFunc("engine", func(ctx context.Context) health.CheckResult {
		if _, err := s.selector.Resolve(ctx); err != nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "bound to " + s.selector.BoundKind(),
		}
	})
}

func (s *Server) registerTools() {
	listenSchema := captureSchema()
	listenSchema["properties"].(map[string]any)["language"] = languageProperty()
	s.mcp.Register(mcp.Tool{
		Name: "listen",
		Description: "Record from the microphone and return the transcription. " +
			"Stops after the requested duration, or earlier once speech is followed by silence.",
		InputSchema: listenSchema,
	}, s.handleListen)

	s.mcp.Register(mcp.Tool{
		Name: "listen_raw",
		Description: "Record from the microphone and return the raw audio as " +
			"base64-encoded WAV without transcribing it.",
		InputSchema: captureSchema(),
	}, s.handleListenRaw)

	s.mcp.Register(mcp.Tool{
		Name:        "transcribe",
		Description: "Transcribe an audio file from disk.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"audio_path": map[string]any{
					"type":        "string",
					"description": "Path to the audio file",
				},
				"language": languageProperty(),
			},
			"required": []string{"audio_path"},
		},
	}, s.handleTranscribe)

	s.mcp.Register(mcp.Tool{
		Name:        "get_audio_devices",
		Description: "List available audio input devices.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, s.handleGetAudioDevices)
}

func captureSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "number",
				"description": "Maximum recording length in seconds",
			},
			"auto_stop": map[string]any{
				"type":        "boolean",
				"description": "Stop early after trailing silence (default true)",
			},
		},
	}
}

func languageProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Language code for transcription (empty uses the configured default)",
	}
}

func (s *Server) record(ctx context.Context, args map[string]any) (*capture.Artifact, error) {
	req := capture.Request{
		Duration: mcp.NumberArg(args, "duration", 0),
		AutoStop: mcp.BoolArg(args, "auto_stop", true),
	}
	return s.recorder.Record(ctx, req)
}

func (s *Server) handleListen(ctx context.Context, args map[string]any) (string, error) {
	art, err := s.record(ctx, args)
	if err != nil {
		return "", err
	}

	if !art.SpeechDetected {
		return "No speech detected.", nil
	}

	transcriber, err := s.selector.Resolve(ctx)
	if err != nil {
		return "", err
	}

	res, err := transcriber.Transcribe(ctx, art.Samples, mcp.StringArg(args, "language", ""))
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	s.remember(ctx, &history.Entry{
		ID:       art.SessionID,
		Service:  "auris-listen",
		Kind:     history.KindTranscript,
		Engine:   res.Engine,
		Text:     res.Text,
		Language: res.Language,
		Duration: art.Duration,
		Outcome:  string(art.Outcome),
	})

	if strings.TrimSpace(res.Text) == "" {
		return "No speech detected.", nil
	}
	return fmt.Sprintf("Recorded %.1fs\n--- Transcript ---\n%s", art.Duration, res.Text), nil
}

func (s *Server) handleListenRaw(ctx context.Context, args map[string]any) (string, error) {
	art, err := s.record(ctx, args)
	if err != nil {
		return "", err
	}

	var wav bytes.Buffer
	if err := audio.EncodeWAV(&wav, art.Samples, art.SampleRate); err != nil {
		return "", fmt.Errorf("encoding WAV: %w", err)
	}

	return fmt.Sprintf("Recorded %.1fs\nFormat: WAV (PCM S16LE, %dHz, mono)\nSize: %d bytes\n--- base64 ---\n%s",
		art.Duration, art.SampleRate, wav.Len(),
		base64.StdEncoding.EncodeToString(wav.Bytes())), nil
}

func (s *Server) handleTranscribe(ctx context.Context, args map[string]any) (string, error) {
	path := mcp.StringArg(args, "audio_path", "")
	if path == "" {
		return "", fmt.Errorf("audio_path is required")
	}

	transcriber, err := s.selector.Resolve(ctx)
	if err != nil {
		return "", err
	}

	res, err := transcriber.TranscribeFile(ctx, path, mcp.StringArg(args, "language", ""))
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	s.remember(ctx, &history.Entry{
		Service:  "auris-listen",
		Kind:     history.KindTranscript,
		Engine:   res.Engine,
		Text:     res.Text,
		Language: res.Language,
	})

	return res.Text, nil
}

func (s *Server) handleGetAudioDevices(ctx context.Context, args map[string]any) (string, error) {
	devices, err := s.listDevices()
	if err != nil {
		return "", fmt.Errorf("listing devices: %w", err)
	}
	if len(devices) == 0 {
		return "No audio input devices found.", nil
	}

	out, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// remember writes a history entry if a store is configured. History
// failures are logged, never surfaced to the tool caller.
func (s *Server) remember(ctx context.Context, entry *history.Entry) {
	if s.store == nil {
		return
	}
	if err := s.store.Record(ctx, entry); err != nil {
		s.logger.Warn("recording history failed", zap.Error(err))
	}
}
