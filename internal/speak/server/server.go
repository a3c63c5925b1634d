// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     server
// Description: Tool surface of the speak service
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/config"
	"github.com/aurisproject/auris/internal/history"
	"github.com/aurisproject/auris/internal/speak/tts"
	"github.com/aurisproject/auris/pkg/core/engine"
	"github.com/aurisproject/auris/pkg/core/health"
	"github.com/aurisproject/auris/pkg/core/mcp"
	"github.com/aurisproject/auris/pkg/core/version"
)

// Server exposes the speak tools over MCP.
type Server struct {
	cfg      config.SpeakConfig
	logger   *zap.Logger
	selector *engine.Selector[tts.Synthesizer]
	profiles tts.Profiles
	store    history.Store // may be nil

	mcp *mcp.Server
}

// New assembles the speak server.
func New(cfg config.SpeakConfig, selector *engine.Selector[tts.Synthesizer], profiles tts.Profiles, store history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if profiles == nil {
		profiles = tts.Profiles{}
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		selector: selector,
		profiles: profiles,
		store:    store,
		mcp:      mcp.NewServer("auris-speak", version.Speak, logger),
	}
	s.registerTools()
	return s
}

// Serve runs the MCP loop until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Serve(ctx, os.Stdin, os.Stdout)
}

// RegisterHealth adds the speak service's checks to a health registry.
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
	s.mcp.Register(mcp.Tool{
		Name:        "say",
		Description: "Speak text aloud through the local audio output. Returns when playback has finished.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "Text to speak",
				},
				"voice": map[string]any{
					"type":        "string",
					"description": "Voice or voice profile name (empty uses the default)",
				},
				"rate": map[string]any{
					"type":        "number",
					"description": "Speech rate in words per minute (0 uses the default)",
				},
			},
			"required": []string{"text"},
		},
	}, s.handleSay)

	s.mcp.Register(mcp.Tool{
		Name:        "get_voices",
		Description: "List the voices offered by the active synthesis engine.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, s.handleGetVoices)
}

func (s *Server) handleSay(ctx context.Context, args map[string]any) (string, error) {
	text := mcp.StringArg(args, "text", "")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text is required")
	}

	req := tts.Request{
		Text:  text,
		Voice: mcp.StringArg(args, "voice", ""),
		Rate:  int(mcp.NumberArg(args, "rate", 0)),
	}
	req = s.profiles.Apply(req)

	synth, err := s.selector.Resolve(ctx)
	if err != nil {
		return "", err
	}

	if err := synth.Speak(ctx, req); err != nil {
		return "", fmt.Errorf("speech failed: %w", err)
	}

	s.remember(ctx, &history.Entry{
		Service: "auris-speak",
		Kind:    history.KindSpeech,
		Engine:  synth.Name(),
		Text:    req.Text,
		Voice:   req.Voice,
	})

	return fmt.Sprintf("Spoke %d characters.", len(req.Text)), nil
}

func (s *Server) handleGetVoices(ctx context.Context, args map[string]any) (string, error) {
	synth, err := s.selector.Resolve(ctx)
	if err != nil {
		return "", err
	}

	voices, err := synth.Voices(ctx)
	if err != nil {
		return "", fmt.Errorf("listing voices: %w", err)
	}

	// Profiles are part of the selectable surface too.
	for name := range s.profiles {
		voices = append(voices, tts.Voice{Name: name, Description: "voice profile"})
	}

	if len(voices) == 0 {
		return "No voices available.", nil
	}
	out, err := json.MarshalIndent(voices, "", "  ")
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
