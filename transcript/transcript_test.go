package transcript

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sweetpotato0/roundtable/errors"
)

func TestAppendOrdering(t *testing.T) {
	tr := New()

	for i := 0; i < 5; i++ {
		turn := NewTurn(i, "gpt", Reply(fmt.Sprintf("turn %d", i)))
		if err := tr.Append(turn); err != nil {
			t.Fatalf("Failed to append turn %d: %v", i, err)
		}
	}

	turns := tr.Turns()
	if len(turns) != 5 {
		t.Fatalf("Expected 5 turns, got %d", len(turns))
	}
	for k, turn := range turns {
		if turn.Index != k {
			t.Errorf("Expected turn index %d at position %d, got %d", k, k, turn.Index)
		}
	}
}

func TestAppendOrderingViolation(t *testing.T) {
	tr := New()

	if err := tr.Append(NewTurn(0, "gpt", Reply("first"))); err != nil {
		t.Fatalf("Failed to append first turn: %v", err)
	}

	err := tr.Append(NewTurn(2, "gemini", Reply("skipped")))
	if err == nil {
		t.Fatalf("Expected ordering violation for non-contiguous index")
	}
	violation, ok := err.(*errors.OrderingViolation)
	if !ok {
		t.Fatalf("Expected OrderingViolation, got %T: %v", err, err)
	}
	if violation.Want != 1 || violation.Got != 2 {
		t.Errorf("Expected want=1 got=2, have want=%d got=%d", violation.Want, violation.Got)
	}

	// The log must be untouched by the rejected append.
	if tr.Len() != 1 {
		t.Errorf("Expected 1 turn after rejected append, got %d", tr.Len())
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	tr := New()
	tr.Append(NewTurn(0, "gpt", Reply("hello")))

	turns := tr.Turns()
	turns[0].Speaker = "mutated"

	if tr.Turns()[0].Speaker != "gpt" {
		t.Errorf("Turns() should return a copy, not the backing slice")
	}
}

func TestFailureOutcome(t *testing.T) {
	perr := errors.NewProviderError(errors.KindRateLimited, "gemini", "429 too many requests")
	outcome := Failure(perr)

	if outcome.Kind != OutcomeError {
		t.Errorf("Expected error outcome, got %s", outcome.Kind)
	}
	if outcome.ErrorKind != errors.KindRateLimited {
		t.Errorf("Expected rate_limited kind, got %s", outcome.ErrorKind)
	}
	if outcome.Text != "" {
		t.Errorf("Error outcome should carry no reply text")
	}
}

// countingStore records how many times Save is invoked.
type countingStore struct {
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Save(ctx context.Context, record *Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return "memory://" + record.ID, nil
}

func (s *countingStore) Load(ctx context.Context, id string) (*Record, error) {
	return nil, errors.ErrNotFound
}

func TestFlushIdempotent(t *testing.T) {
	tr := New()
	tr.Append(NewTurn(0, "gpt", Reply("hello")))

	store := &countingStore{}
	record := &Record{
		ID:         "sess1",
		Topic:      "climate policy",
		Status:     "completed",
		Turns:      tr.Turns(),
		CreatedAt:  time.Now(),
		FinishedAt: time.Now(),
	}

	first, err := tr.Flush(context.Background(), store, record)
	if err != nil {
		t.Fatalf("First flush failed: %v", err)
	}

	second, err := tr.Flush(context.Background(), store, record)
	if err != nil {
		t.Fatalf("Second flush failed: %v", err)
	}

	if store.saves != 1 {
		t.Errorf("Expected exactly one save, got %d", store.saves)
	}
	if first != second {
		t.Errorf("Second flush should return the handle from the first")
	}
	if first.Location != "memory://sess1" {
		t.Errorf("Unexpected handle location %s", first.Location)
	}
}
