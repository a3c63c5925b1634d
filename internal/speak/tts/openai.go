// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: Cloud synthesis via the OpenAI speech API
// License:     MIT
// ============================================================================

package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// WAVPlayer plays in-memory WAV data. Satisfied by audio.Playback.
type WAVPlayer interface {
	PlayWAV(data []byte) error
}

// openAIVoices is the fixed voice set of the OpenAI speech endpoint.
var openAIVoices = []Voice{
	{Name: string(openai.VoiceAlloy)},
	{Name: string(openai.VoiceEcho)},
	{Name: string(openai.VoiceFable)},
	{Name: string(openai.VoiceOnyx)},
	{Name: string(openai.VoiceNova)},
	{Name: string(openai.VoiceShimmer)},
}

// OpenAI synthesizes via the OpenAI speech endpoint and plays the
// returned WAV locally.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
	player WAVPlayer
}

// NewOpenAI creates the cloud synthesizer. Construction fails without
// an API key; no network call is made until the first utterance.
func NewOpenAI(apiKey, model, voice string, player WAVPlayer) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceNova)
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		voice:  voice,
		player: player,
	}, nil
}

// Speak synthesizes the text and plays it through the output device.
func (o *OpenAI) Speak(ctx context.Context, req Request) error {
	voice := req.Voice
	if voice == "" {
		voice = o.voice
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("reading speech response: %w", err)
	}

	return o.player.PlayWAV(data)
}

// Voices lists the endpoint's fixed voice set.
func (o *OpenAI) Voices(ctx context.Context) ([]Voice, error) {
	return openAIVoices, nil
}

// Name identifies the engine.
func (o *OpenAI) Name() string { return "openai" }

// Close is a no-op.
func (o *OpenAI) Close() error { return nil }
