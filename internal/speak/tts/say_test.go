package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurisproject/auris/internal/audio"
)

// stubSayBinary puts a fake say executable on PATH that signals it is
// running via a marker file and then blocks for a moment.
func stubSayBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	marker := filepath.Join(dir, "speaking")
	script := "#!/bin/sh\ntouch " + marker + "\nsleep 1\n"
	if err := os.WriteFile(filepath.Join(dir, "say"), []byte(script), 0o755); err != nil {
		t.Fatalf("writing stub binary: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return marker
}

func TestSay_ConcurrentSpeakGetsDeviceBusy(t *testing.T) {
	marker := stubSayBinary(t)
	s := &Say{}

	first := make(chan error, 1)
	go func() {
		first <- s.Speak(context.Background(), Request{Text: "hello"})
	}()

	// Wait until the first utterance is actually playing.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stub say binary never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Speak(context.Background(), Request{Text: "world"}); !errors.Is(err, audio.ErrDeviceBusy) {
		t.Errorf("concurrent Speak() error = %v, want ErrDeviceBusy", err)
	}

	if err := <-first; err != nil {
		t.Errorf("first Speak() error = %v", err)
	}

	// The device is free again once playback finished.
	if err := s.Speak(context.Background(), Request{Text: "again"}); err != nil {
		t.Errorf("Speak() after playback error = %v", err)
	}
}
