// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     tts
// Description: macOS native TTS using the 'say' command
// License:     MIT
// ============================================================================

package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/aurisproject/auris/internal/audio"
)

// Say speaks through the macOS say command. Only one utterance plays at
// a time; concurrent calls get ErrDeviceBusy instead of overlapping on
// the output device.
type Say struct {
	mu    sync.Mutex
	voice string
	rate  int
}

// NewSay creates the say engine. It fails off macOS or when the binary
// is missing, which lets the selector fall through to the next engine.
func NewSay(voice string, rate int) (*Say, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("say is only available on macOS")
	}
	if _, err := exec.LookPath("say"); err != nil {
		return nil, fmt.Errorf("say binary not found: %w", err)
	}
	return &Say{voice: voice, rate: rate}, nil
}

// Speak runs say and waits for it to finish. The text is passed through
// a temp file so it can never be parsed as additional flags.
func (s *Say) Speak(ctx context.Context, req Request) error {
	if !s.mu.TryLock() {
		return audio.ErrDeviceBusy
	}
	defer s.mu.Unlock()

	f, err := os.CreateTemp("", "auris-say-*.txt")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(req.Text); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	f.Close()

	voice := req.Voice
	if voice == "" {
		voice = s.voice
	}
	rate := req.Rate
	if rate == 0 {
		rate = s.rate
	}

	var args []string
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if rate > 0 {
		args = append(args, "-r", strconv.Itoa(rate))
	}
	args = append(args, "-f", f.Name())

	cmd := exec.CommandContext(ctx, "say", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("say failed: %w, stderr: %s", err, stderr.String())
	}
	return nil
}

// Voices lists the system voices via `say -v ?`.
func (s *Say) Voices(ctx context.Context) ([]Voice, error) {
	cmd := exec.CommandContext(ctx, "say", "-v", "?")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing voices: %w", err)
	}
	return parseSayVoices(string(out)), nil
}

// parseSayVoices parses `say -v ?` output. Each line looks like
//
//	Samantha            en_US    # Hello! My name is Samantha.
//
// where the voice name may itself contain spaces.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, " \r")
		if line == "" {
			continue
		}

		var description string
		if idx := strings.Index(line, "#"); idx != -1 {
			description = strings.TrimSpace(line[idx+1:])
			line = line[:idx]
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		language := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")

		voices = append(voices, Voice{
			Name:        name,
			Language:    language,
			Description: description,
		})
	}
	return voices
}

// Name identifies the engine.
func (s *Say) Name() string { return "say" }

// Close is a no-op.
func (s *Say) Close() error { return nil }
