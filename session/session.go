package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sweetpotato0/roundtable/schedule"
	"github.com/sweetpotato0/roundtable/transcript"
)

// Status represents the lifecycle state of a session
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is one complete run of a topic through the turn limit. It owns its
// transcript exclusively; the orchestrator is the only writer while the
// session is running, and terminal sessions are immutable.
type Session struct {
	mu         sync.RWMutex
	id         string
	topic      string
	roster     schedule.Roster
	maxTurns   int
	status     Status
	transcript *transcript.Transcript
	createdAt  time.Time
	finishedAt time.Time
	cancel     func()
}

func newSession(topic string, roster schedule.Roster, maxTurns int) *Session {
	return &Session{
		id:         uuid.NewString(),
		topic:      topic,
		roster:     roster,
		maxTurns:   maxTurns,
		status:     StatusRunning,
		transcript: transcript.New(),
		createdAt:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Topic returns the immutable session topic.
func (s *Session) Topic() string {
	return s.topic
}

// Roster returns a copy of the session roster.
func (s *Session) Roster() schedule.Roster {
	return s.roster.Clone()
}

// MaxTurns returns the configured turn limit.
func (s *Session) MaxTurns() int {
	return s.maxTurns
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Turns returns a copy of the transcript so far.
func (s *Session) Turns() []transcript.Turn {
	return s.transcript.Turns()
}

// Handle returns the durable handle once the session has been flushed.
func (s *Session) Handle() *transcript.Handle {
	return s.transcript.Handle()
}

// setStatus transitions the lifecycle state. Terminal states are sticky.
func (s *Session) setStatus(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return false
	}
	s.status = status
	if status.Terminal() {
		s.finishedAt = time.Now()
	}
	return true
}

// Record builds the serializable snapshot written at flush time.
func (s *Session) Record() *transcript.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &transcript.Record{
		ID:         s.id,
		Topic:      s.topic,
		Status:     string(s.status),
		Turns:      s.transcript.Turns(),
		CreatedAt:  s.createdAt,
		FinishedAt: s.finishedAt,
	}
}
