package store

import (
	"context"
	"testing"
	"time"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
)

func testRecord(id string) *transcript.Record {
	return &transcript.Record{
		ID:     id,
		Topic:  "climate policy",
		Status: "completed",
		Turns: []transcript.Turn{
			transcript.NewTurn(0, "gpt", transcript.Reply("opening argument")),
			transcript.NewTurn(1, "gemini", transcript.Failure(
				errors.NewProviderError(errors.KindTimeout, "gemini", "deadline exceeded"))),
		},
		CreatedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	fs, err := NewFileStore(&FileConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	record := testRecord("sess1")
	location, err := fs.Save(context.Background(), record)
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if location == "" {
		t.Errorf("Expected a file location")
	}

	loaded, err := fs.Load(context.Background(), "sess1")
	if err != nil {
		t.Fatalf("Failed to load record: %v", err)
	}
	if loaded.Topic != record.Topic {
		t.Errorf("Expected topic %q, got %q", record.Topic, loaded.Topic)
	}
	if len(loaded.Turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(loaded.Turns))
	}
	if loaded.Turns[1].Outcome.Kind != transcript.OutcomeError {
		t.Errorf("Expected error outcome on turn 1, got %s", loaded.Turns[1].Outcome.Kind)
	}
	if loaded.Turns[1].Outcome.ErrorKind != errors.KindTimeout {
		t.Errorf("Expected timeout error kind, got %s", loaded.Turns[1].Outcome.ErrorKind)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	fs, err := NewFileStore(&FileConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	_, err = fs.Load(context.Background(), "missing")
	if err != errors.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveDeterministic(t *testing.T) {
	fs, err := NewFileStore(&FileConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	record := testRecord("sess1")
	first, err := fs.Save(context.Background(), record)
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	second, err := fs.Save(context.Background(), record)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if first != second {
		t.Errorf("Saving the same record should land at the same location")
	}
}

func TestInMemoryStoreSaveLoad(t *testing.T) {
	s := NewInMemoryStore()

	record := testRecord("sess1")
	location, err := s.Save(context.Background(), record)
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if location != "memory://sess1" {
		t.Errorf("Unexpected location %s", location)
	}

	loaded, err := s.Load(context.Background(), "sess1")
	if err != nil {
		t.Fatalf("Failed to load record: %v", err)
	}

	// Mutating the loaded copy must not affect the stored record.
	loaded.Turns[0].Speaker = "mutated"
	again, _ := s.Load(context.Background(), "sess1")
	if again.Turns[0].Speaker != "gpt" {
		t.Errorf("Store should hand out copies, not shared slices")
	}

	if s.Count() != 1 {
		t.Errorf("Expected 1 stored record, got %d", s.Count())
	}
}

func TestInMemoryStoreLoadMissing(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Load(context.Background(), "missing")
	if err != errors.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("cassandra")
	if err == nil {
		t.Errorf("Expected error for unknown backend")
	}
}
