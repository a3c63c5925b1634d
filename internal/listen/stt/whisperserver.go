// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     stt
// Description: Transcription via a local whisper.cpp HTTP server
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aurisproject/auris/internal/audio"
)

// WhisperServer transcribes via a whisper.cpp server (or any service
// speaking the OpenAI transcription HTTP shape, such as LocalAI).
type WhisperServer struct {
	baseURL    string
	language   string
	sampleRate int
	client     *http.Client
}

// NewWhisperServer creates a transcriber for the server at baseURL and
// probes its health endpoint. An unreachable server fails construction
// so the selector can fall through.
func NewWhisperServer(ctx context.Context, cfg Config) (*WhisperServer, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL not configured")
	}

	w := &WhisperServer{
		baseURL:    cfg.ServerURL,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
	if err := w.ping(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// ping checks the server's health endpoint with a short timeout.
func (w *WhisperServer) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Transcribe sends the samples as an in-memory WAV to the server.
func (w *WhisperServer) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, w.sampleRate); err != nil {
		return Result{}, fmt.Errorf("encoding WAV: %w", err)
	}
	return w.post(ctx, &buf, language)
}

// TranscribeFile sends an audio file from disk to the server.
func (w *WhisperServer) TranscribeFile(ctx context.Context, path, language string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading file: %w", err)
	}
	return w.post(ctx, bytes.NewReader(data), language)
}

func (w *WhisperServer) post(ctx context.Context, body io.Reader, language string) (Result, error) {
	lang := w.language
	if language != "" {
		lang = language
	}

	url := fmt.Sprintf("%s/v1/audio/transcriptions", w.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	q := req.URL.Query()
	q.Add("language", lang)
	req.URL.RawQuery = q.Encode()

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Result{}, fmt.Errorf("decoding response: %w", err)
	}

	return Result{
		Text:     response.Text,
		Language: lang,
		Engine:   w.Name(),
	}, nil
}

// Name identifies the engine.
func (w *WhisperServer) Name() string { return "whisper-server" }

// Close releases resources.
func (w *WhisperServer) Close() error { return nil }
