// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     stt
// Description: Engine fallback policy for transcription
// License:     MIT
// ============================================================================

package stt

import (
	"context"

	"github.com/aurisproject/auris/pkg/core/engine"
)

// Engine kinds accepted in configuration.
const (
	KindAuto          = "auto"
	KindWhisperCLI    = "whisper-cli"
	KindWhisperServer = "whisper-server"
	KindOpenAI        = "openai"
)

// BuildPolicy assembles the transcription fallback policy. The "auto"
// chain prefers local engines and only reaches for the cloud when
// neither whisper variant is usable.
func BuildPolicy(cfg Config, apiKey, apiModel string) engine.Policy[Transcriber] {
	cli := engine.Candidate[Transcriber]{
		Kind: KindWhisperCLI,
		Probe: func(ctx context.Context) (Transcriber, error) {
			return NewWhisperCLI(cfg)
		},
	}
	server := engine.Candidate[Transcriber]{
		Kind: KindWhisperServer,
		Probe: func(ctx context.Context) (Transcriber, error) {
			return NewWhisperServer(ctx, cfg)
		},
	}
	cloud := engine.Candidate[Transcriber]{
		Kind: KindOpenAI,
		Probe: func(ctx context.Context) (Transcriber, error) {
			return NewOpenAI(apiKey, apiModel, cfg)
		},
	}

	return engine.Policy[Transcriber]{
		KindAuto:          {cli, server, cloud},
		KindWhisperCLI:    {cli},
		KindWhisperServer: {server},
		KindOpenAI:        {cloud},
	}
}

// NewSelector builds a selector for the requested engine kind.
func NewSelector(cfg Config, apiKey, apiModel, requested string) *engine.Selector[Transcriber] {
	return engine.NewSelector(BuildPolicy(cfg, apiKey, apiModel), requested)
}
