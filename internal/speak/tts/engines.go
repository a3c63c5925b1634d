// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: Engine fallback policy for synthesis
// License:     MIT
// ============================================================================

package tts

import (
	"context"

	"github.com/aurisproject/auris/pkg/core/engine"
)

// Engine kinds accepted in configuration.
const (
	KindAuto   = "auto"
	KindSay    = "say"
	KindPiper  = "piper"
	KindOpenAI = "openai"
)

// Options collects everything the candidates need.
type Options struct {
	Voice  string
	Rate   int
	Piper  PiperConfig
	APIKey string
	Model  string

	// Player handles local PCM and WAV playback for the engines that
	// synthesize to audio data.
	Player interface {
		Player
		WAVPlayer
	}
}

// BuildPolicy assembles the synthesis fallback policy. The "auto" chain
// prefers the native engine, then local piper, then the cloud.
func BuildPolicy(opts Options) engine.Policy[Synthesizer] {
	say := engine.Candidate[Synthesizer]{
		Kind: KindSay,
		Probe: func(ctx context.Context) (Synthesizer, error) {
			return NewSay(opts.Voice, opts.Rate)
		},
	}
	piper := engine.Candidate[Synthesizer]{
		Kind: KindPiper,
		Probe: func(ctx context.Context) (Synthesizer, error) {
			return NewPiper(opts.Piper, opts.Player)
		},
	}
	cloud := engine.Candidate[Synthesizer]{
		Kind: KindOpenAI,
		Probe: func(ctx context.Context) (Synthesizer, error) {
			return NewOpenAI(opts.APIKey, opts.Model, opts.Voice, opts.Player)
		},
	}

	return engine.Policy[Synthesizer]{
		KindAuto:   {say, piper, cloud},
		KindSay:    {say},
		KindPiper:  {piper},
		KindOpenAI: {cloud},
	}
}

// NewSelector builds a selector for the requested engine kind.
func NewSelector(opts Options, requested string) *engine.Selector[Synthesizer] {
	return engine.NewSelector(BuildPolicy(opts), requested)
}
