// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     stt
// Description: Cloud transcription via the OpenAI audio API
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aurisproject/auris/internal/audio"
)

// OpenAI transcribes via the OpenAI transcription endpoint.
type OpenAI struct {
	client     *openai.Client
	model      string
	language   string
	sampleRate int
}

// NewOpenAI creates a cloud transcriber. Construction fails without an
// API key; no network call is made until the first transcription.
func NewOpenAI(apiKey, model string, cfg Config) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{
		client:     openai.NewClient(apiKey),
		model:      model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
	}, nil
}

// Transcribe uploads the samples as an in-memory WAV.
func (o *OpenAI) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, o.sampleRate); err != nil {
		return Result{}, fmt.Errorf("encoding WAV: %w", err)
	}

	lang := o.lang(language)
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		Reader:   &buf,
		FilePath: "audio.wav",
		Language: lang,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}

	return Result{Text: resp.Text, Language: lang, Engine: o.Name()}, nil
}

// TranscribeFile uploads an audio file from disk.
func (o *OpenAI) TranscribeFile(ctx context.Context, path, language string) (Result, error) {
	lang := o.lang(language)
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
		Language: lang,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}
	return Result{Text: resp.Text, Language: lang, Engine: o.Name()}, nil
}

func (o *OpenAI) lang(override string) string {
	if override != "" {
		return override
	}
	return o.language
}

// Name identifies the engine.
func (o *OpenAI) Name() string { return "openai" }

// Close releases resources.
func (o *OpenAI) Close() error { return nil }
