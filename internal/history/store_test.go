package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []*Entry{
		{Service: "auris-listen", Kind: KindTranscript, Engine: "whisper-cli", Text: "hello there", Language: "en", Duration: 3.2, Outcome: "silence"},
		{Service: "auris-speak", Kind: KindSpeech, Engine: "say", Text: "hi back", Voice: "Samantha"},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Record() did not assign an ID")
		}
	}

	all, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Query() returned %d entries, want 2", len(all))
	}

	transcripts, err := store.Query(ctx, Filter{Kind: KindTranscript})
	if err != nil {
		t.Fatalf("Query(transcript) error = %v", err)
	}
	if len(transcripts) != 1 {
		t.Fatalf("Query(transcript) returned %d entries, want 1", len(transcripts))
	}
	got := transcripts[0]
	if got.Text != "hello there" || got.Engine != "whisper-cli" || got.Outcome != "silence" {
		t.Errorf("transcript entry = %+v, want the recorded values back", got)
	}
}

func TestStore_QueryLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, &Entry{
			Service: "auris-listen", Kind: KindTranscript, Engine: "openai", Text: "x",
		}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := store.Query(ctx, Filter{Limit: 3})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Query(limit 3) returned %d entries", len(got))
	}
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &Entry{
		Service: "auris-listen", Kind: KindTranscript, Engine: "openai",
		Text: "ancient", Timestamp: time.Now().Add(-48 * time.Hour),
	}
	fresh := &Entry{Service: "auris-listen", Kind: KindTranscript, Engine: "openai", Text: "recent"}
	for _, e := range []*Entry{old, fresh} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	pruned, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if pruned != 1 {
		t.Errorf("Prune() removed %d rows, want 1", pruned)
	}

	remaining, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].Text != "recent" {
		t.Errorf("remaining entries = %+v, want only the recent one", remaining)
	}
}
