package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/pkg/logging"
	"github.com/sweetpotato0/roundtable/schedule"
)

// StartOptions customizes one session. Zero values fall back to the runner
// defaults.
type StartOptions struct {
	Roster   []string
	MaxTurns int
}

// RunnerConfig holds the runner defaults and limits.
type RunnerConfig struct {
	DefaultRoster   []string
	DefaultMaxTurns int

	// MaxConcurrent bounds the number of sessions running at once. Further
	// sessions are accepted and queue for a worker slot.
	MaxConcurrent int
}

// Runner owns the session registry and the worker pool. Start validates
// synchronously and runs the conversation in the background; lookups and
// cancellation go through the session id.
type Runner struct {
	mu       sync.RWMutex
	orc      *Orchestrator
	cfg      RunnerConfig
	sessions map[string]*Session
	slots    chan struct{}
	wg       sync.WaitGroup
	closed   bool
	logger   *slog.Logger
}

// NewRunner creates a runner around the orchestrator.
func NewRunner(orc *Orchestrator, cfg RunnerConfig) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Runner{
		orc:      orc,
		cfg:      cfg,
		sessions: make(map[string]*Session),
		slots:    make(chan struct{}, cfg.MaxConcurrent),
		logger:   logging.WithComponent("runner"),
	}
}

// Start validates the request, registers a new session and schedules its run.
// It returns the session id immediately; invalid requests fail here and no
// session is created.
func (r *Runner) Start(topic string, opts *StartOptions) (string, error) {
	if topic == "" {
		return "", &errors.ConfigurationError{Field: "topic", Message: "topic cannot be empty"}
	}

	names := r.cfg.DefaultRoster
	maxTurns := r.cfg.DefaultMaxTurns
	if opts != nil {
		if len(opts.Roster) > 0 {
			names = opts.Roster
		}
		if opts.MaxTurns != 0 {
			maxTurns = opts.MaxTurns
		}
	}
	if maxTurns <= 0 {
		return "", &errors.ConfigurationError{Field: "max_turns", Message: fmt.Sprintf("must be positive, got %d", maxTurns)}
	}

	roster, err := schedule.NewRoster(names...)
	if err != nil {
		return "", &errors.ConfigurationError{Field: "roster", Message: err.Error()}
	}
	for _, speaker := range roster {
		if _, err := r.orc.registry.Get(speaker); err != nil {
			return "", &errors.ConfigurationError{Field: "roster", Message: fmt.Sprintf("unknown backend %q", speaker)}
		}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", errors.ErrSessionClosed
	}
	sess := newSession(topic, roster, maxTurns)
	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	r.sessions[sess.ID()] = sess
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		select {
		case r.slots <- struct{}{}:
			defer func() { <-r.slots }()
		case <-ctx.Done():
			r.logger.Warn("session cancelled while queued", "session_id", sess.ID())
			r.orc.finish(sess, StatusFailed, r.logger.With("session_id", sess.ID()))
			return
		}

		if err := r.orc.Run(ctx, sess); err != nil {
			r.logger.Error("session run failed", "session_id", sess.ID(), "error", err)
		}
	}()

	return sess.ID(), nil
}

// Get returns the session with the given id.
func (r *Runner) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return sess, nil
}

// Cancel requests cancellation of a running session. The orchestrator
// finishes the in-flight turn and then stops; cancelling a terminal session
// is a no-op.
func (r *Runner) Cancel(id string) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	if sess.cancel != nil {
		sess.cancel()
	}
	return nil
}

// Close stops accepting new sessions and waits for running ones to finish or
// for ctx to expire.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
