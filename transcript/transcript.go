package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/sweetpotato0/roundtable/errors"
)

// OutcomeKind distinguishes successful replies from failed attempts.
type OutcomeKind string

const (
	OutcomeReply OutcomeKind = "reply"
	OutcomeError OutcomeKind = "error"
)

// Outcome is the result of one speaker's attempt at a turn: either the reply
// text or the classified failure.
type Outcome struct {
	Kind         OutcomeKind              `json:"kind"`
	Text         string                   `json:"text,omitempty"`
	ErrorKind    errors.ProviderErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string                   `json:"error_message,omitempty"`
}

// Reply builds a successful outcome.
func Reply(text string) Outcome {
	return Outcome{Kind: OutcomeReply, Text: text}
}

// Failure builds an error outcome from a classified provider error.
func Failure(perr *errors.ProviderError) Outcome {
	return Outcome{
		Kind:         OutcomeError,
		ErrorKind:    perr.Kind,
		ErrorMessage: perr.Error(),
	}
}

// Turn is one speaker's contribution (or failure) at a position in the
// conversation. Turns are never mutated after creation.
type Turn struct {
	Index     int       `json:"index"`
	Speaker   string    `json:"speaker"`
	Outcome   Outcome   `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates a turn at the given position.
func NewTurn(index int, speaker string, outcome Outcome) Turn {
	return Turn{
		Index:     index,
		Speaker:   speaker,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
}

// Handle identifies the durable copy of a flushed transcript.
type Handle struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	WrittenAt time.Time `json:"written_at"`
}

// Record is the serializable snapshot written to durable storage, once,
// when a session reaches a terminal state.
type Record struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Status     string    `json:"status"`
	Turns      []Turn    `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store defines the interface for durable transcript storage backends.
// Save writes the full record atomically and returns its location.
type Store interface {
	Save(ctx context.Context, record *Record) (string, error)
	Load(ctx context.Context, id string) (*Record, error)
}

// Transcript is the in-memory ordered log of turns for one session. It is
// append-only while the session runs and flushed to a Store exactly once.
type Transcript struct {
	mu     sync.RWMutex
	turns  []Turn
	handle *Handle
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append records a turn. Indices must arrive contiguously from zero; any
// other index is an OrderingViolation. This should be unreachable under a
// correct orchestrator.
func (t *Transcript) Append(turn Turn) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if turn.Index != len(t.turns) {
		return &errors.OrderingViolation{Want: len(t.turns), Got: turn.Index}
	}
	t.turns = append(t.turns, turn)
	return nil
}

// Turns returns a copy of the recorded turns in order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return nil
	}
	turns := make([]Turn, len(t.turns))
	copy(turns, t.turns)
	return turns
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Flush writes the record through the store. The first call performs the
// write; subsequent calls return the handle produced by the first without
// touching the store again.
func (t *Transcript) Flush(ctx context.Context, store Store, record *Record) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle != nil {
		return t.handle, nil
	}

	location, err := store.Save(ctx, record)
	if err != nil {
		return nil, err
	}
	t.handle = &Handle{
		ID:        record.ID,
		Location:  location,
		WrittenAt: time.Now(),
	}
	return t.handle, nil
}

// Handle returns the durable handle if the transcript has been flushed.
func (t *Transcript) Handle() *Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handle
}
