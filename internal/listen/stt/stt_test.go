package stt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aurisproject/auris/pkg/core/engine"
)

func TestCleanTranscript(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			"timestamps stripped",
			"[00:00:00.000 --> 00:00:05.000]  Hello world\n[00:00:05.000 --> 00:00:08.000]  How are you",
			"Hello world How are you",
		},
		{
			"plain text untouched",
			"  Hello world  ",
			"Hello world",
		},
		{
			"blank lines dropped",
			"Hello\n\nworld\n",
			"Hello world",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanTranscript(tc.raw); got != tc.want {
				t.Errorf("cleanTranscript() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "", Config{}); err == nil {
		t.Error("NewOpenAI(\"\") error = nil, want error")
	}
}

func TestNewWhisperServer_ProbesHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer healthy.Close()

	cfg := Config{Language: "en", SampleRate: 16000, ServerURL: healthy.URL}
	if _, err := NewWhisperServer(context.Background(), cfg); err != nil {
		t.Errorf("NewWhisperServer(healthy) error = %v", err)
	}

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	cfg.ServerURL = sick.URL
	if _, err := NewWhisperServer(context.Background(), cfg); err == nil {
		t.Error("NewWhisperServer(unhealthy) error = nil, want error")
	}
}

func TestWhisperServer_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/audio/transcriptions":
			if lang := r.URL.Query().Get("language"); lang != "de" {
				t.Errorf("language query = %q, want %q", lang, "de")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "guten morgen"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ws, err := NewWhisperServer(context.Background(), Config{
		Language: "de", SampleRate: 16000, ServerURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewWhisperServer() error = %v", err)
	}

	res, err := ws.Transcribe(context.Background(), make([]float32, 1600), "")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "guten morgen" {
		t.Errorf("Text = %q, want %q", res.Text, "guten morgen")
	}
	if res.Engine != KindWhisperServer {
		t.Errorf("Engine = %q, want %q", res.Engine, KindWhisperServer)
	}
}

func TestWhisperServer_LanguageOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/audio/transcriptions":
			if lang := r.URL.Query().Get("language"); lang != "fr" {
				t.Errorf("language query = %q, want %q", lang, "fr")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "bonjour"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ws, err := NewWhisperServer(context.Background(), Config{
		Language: "en", SampleRate: 16000, ServerURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewWhisperServer() error = %v", err)
	}

	// A per-call language wins over the configured default.
	res, err := ws.Transcribe(context.Background(), make([]float32, 1600), "fr")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Language != "fr" {
		t.Errorf("Language = %q, want %q", res.Language, "fr")
	}
}

func TestBuildPolicy_AutoChainOrder(t *testing.T) {
	policy := BuildPolicy(Config{}, "", "")

	chain := policy[KindAuto]
	want := []string{KindWhisperCLI, KindWhisperServer, KindOpenAI}
	if len(chain) != len(want) {
		t.Fatalf("auto chain length = %d, want %d", len(chain), len(want))
	}
	for i, kind := range want {
		if chain[i].Kind != kind {
			t.Errorf("auto chain[%d] = %q, want %q", i, chain[i].Kind, kind)
		}
	}

	for _, kind := range want {
		if got := len(policy[kind]); got != 1 {
			t.Errorf("explicit policy[%q] has %d candidates, want 1", kind, got)
		}
	}
}

func TestNewSelector_NothingAvailableAggregatesReasons(t *testing.T) {
	// No whisper binary path that exists, no server, no API key: the
	// auto chain must fail with one reason per candidate.
	cfg := Config{Language: "en", SampleRate: 16000, ModelPath: "/nonexistent/model.bin"}
	sel := NewSelector(cfg, "", "", KindAuto)

	_, err := sel.Resolve(context.Background())
	if err == nil {
		t.Skip("a whisper binary is installed on this machine")
	}

	var unavailable *engine.NoEngineAvailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Resolve() error = %T, want *engine.NoEngineAvailableError", err)
	}
	if len(unavailable.Failures) != 3 {
		t.Errorf("failure count = %d, want 3", len(unavailable.Failures))
	}
	if !strings.Contains(err.Error(), KindOpenAI) {
		t.Errorf("error %q does not mention the %q candidate", err, KindOpenAI)
	}
}
