package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
	"github.com/sweetpotato0/roundtable/middleware"
	"github.com/sweetpotato0/roundtable/pkg/logging"
	"github.com/sweetpotato0/roundtable/pkg/telemetry"
	"github.com/sweetpotato0/roundtable/prompt"
	"github.com/sweetpotato0/roundtable/provider"
	"github.com/sweetpotato0/roundtable/schedule"
	"github.com/sweetpotato0/roundtable/transcript"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// flushTimeout bounds the terminal store write. The flush runs on a detached
// context so a cancelled session still persists its transcript.
const flushTimeout = 10 * time.Second

// Policy holds the per-call and per-turn tuning the orchestrator applies.
type Policy struct {
	// CallTimeout bounds each backend call, retries included individually.
	CallTimeout time.Duration

	// MaxRetries is the number of extra attempts after a retryable failure.
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles per attempt.
	RetryBackoff time.Duration

	// TurnInterval is an optional pause between consecutive turns.
	TurnInterval time.Duration
}

// Orchestrator drives one session at a time through its turn loop: pick the
// next speaker, call its backend, record the outcome, repeat until the turn
// limit. A failed call becomes an error turn and the conversation moves on;
// only transcript corruption or cancellation ends a session early.
type Orchestrator struct {
	registry *provider.Registry
	store    transcript.Store
	budget   *prompt.HistoryBudget
	chain    *middleware.Chain
	policy   Policy
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewOrchestrator creates an orchestrator. budget and chain may be nil.
func NewOrchestrator(registry *provider.Registry, store transcript.Store, budget *prompt.HistoryBudget, chain *middleware.Chain, policy Policy) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		store:    store,
		budget:   budget,
		chain:    chain,
		policy:   policy,
		logger:   logging.WithComponent("orchestrator"),
		tracer:   otel.Tracer("roundtable/session"),
	}
}

// Run executes the session until it reaches a terminal state. It is called
// exactly once per session, from the runner's worker goroutine.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) error {
	ctx, span := o.tracer.Start(ctx, "session.run",
		trace.WithAttributes(
			attribute.String("session.id", sess.ID()),
			attribute.Int("session.max_turns", sess.MaxTurns()),
		))
	var runErr error
	defer func() { telemetry.End(span, runErr) }()

	logger := o.logger.With("session_id", sess.ID())

	// The runner rejects these before a session exists; a session built any
	// other way still must not enter the loop.
	if len(sess.roster) == 0 || sess.MaxTurns() <= 0 {
		err := &errors.ConfigurationError{Field: "session", Message: "roster and max_turns must be set"}
		logger.Error("session misconfigured", "error", err)
		o.finish(sess, StatusFailed, logger)
		runErr = err
		return err
	}

	logger.Info("session started", "topic", sess.Topic(), "roster", []string(sess.Roster()), "max_turns", sess.MaxTurns())

	history := []*message.Message{
		message.NewMessage(message.RoleUser, prompt.Seed(sess.Topic())),
	}

	for i := 0; i < sess.MaxTurns(); i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("session cancelled", "turn", i)
			o.finish(sess, StatusFailed, logger)
			runErr = err
			return err
		}

		speaker := schedule.NextSpeaker(i, sess.roster)
		outcome, reply := o.takeTurn(ctx, sess, i, speaker, history)

		turn := transcript.NewTurn(i, speaker, outcome)
		if err := sess.transcript.Append(turn); err != nil {
			logger.Error("transcript ordering violated", "turn", i, "error", err)
			o.finish(sess, StatusFailed, logger)
			runErr = err
			return err
		}

		if reply != nil {
			history = append(history, reply)
		}

		if o.policy.TurnInterval > 0 && i < sess.MaxTurns()-1 {
			select {
			case <-time.After(o.policy.TurnInterval):
			case <-ctx.Done():
			}
		}
	}

	o.finish(sess, StatusCompleted, logger)
	logger.Info("session completed", "turns", sess.transcript.Len())
	return nil
}

// takeTurn produces the outcome for one turn. Backend failures are absorbed
// into an error outcome; the returned reply is nil in that case.
func (o *Orchestrator) takeTurn(ctx context.Context, sess *Session, index int, speaker string, history []*message.Message) (transcript.Outcome, *message.Message) {
	logger := o.logger.With("session_id", sess.ID(), "turn", index, "speaker", speaker)

	prov, err := o.registry.Get(speaker)
	if err != nil {
		perr := errors.NewProviderError(errors.KindUnknown, speaker, "backend not registered")
		logger.Error("turn failed", "error", perr)
		return transcript.Failure(perr), nil
	}

	if o.budget != nil {
		history = o.budget.Trim(history)
	}

	attempts := 1 + o.policy.MaxRetries
	backoff := o.policy.RetryBackoff
	var perr *errors.ProviderError
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying backend call", "attempt", attempt, "backoff", backoff, "error", perr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			backoff *= 2
		}

		reply, callErr := o.invoke(ctx, sess, index, speaker, prov, history)
		if callErr == nil {
			logger.Info("turn completed", "content_len", len(reply.Content))
			return transcript.Reply(reply.Content), reply
		}

		perr = errors.AsProviderError(callErr, speaker)
		if !perr.Retryable() || ctx.Err() != nil {
			break
		}
	}

	logger.Error("turn failed", "kind", perr.Kind, "error", perr)
	return transcript.Failure(perr), nil
}

// invoke runs one backend call through the middleware chain under the
// per-call timeout.
func (o *Orchestrator) invoke(ctx context.Context, sess *Session, index int, speaker string, prov provider.Provider, history []*message.Message) (*message.Message, error) {
	if o.policy.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.policy.CallTimeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "session.call",
		trace.WithAttributes(
			attribute.String("session.id", sess.ID()),
			attribute.Int("turn.index", index),
			attribute.String("turn.speaker", speaker),
		))

	mctx := middleware.NewContext(ctx)
	mctx.SessionID = sess.ID()
	mctx.TurnIndex = index
	mctx.Speaker = speaker
	mctx.Topic = sess.Topic()
	// Backends and middlewares get their own copy; a misbehaving
	// implementation cannot rewrite the conversation for later turns.
	mctx.History = message.CloneMessages(history)

	generate := func(mctx *middleware.Context) error {
		resp, err := prov.Generate(mctx.Context(), &provider.Request{
			Topic:   mctx.Topic,
			History: mctx.History,
		})
		if err != nil {
			return err
		}
		mctx.Response = resp.Message
		return nil
	}

	var err error
	if o.chain != nil {
		err = o.chain.Execute(mctx, generate)
	} else {
		err = generate(mctx)
	}
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}
	return mctx.Response, nil
}

// finish transitions the session to a terminal state and flushes the
// transcript. The flush is idempotent so a racing cancel cannot duplicate
// the record.
func (o *Orchestrator) finish(sess *Session, status Status, logger *slog.Logger) {
	sess.setStatus(status)
	if o.chain != nil {
		o.chain.ReleaseSession(sess.ID())
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	handle, err := sess.transcript.Flush(ctx, o.store, sess.Record())
	if err != nil {
		logger.Error("transcript flush failed", "error", err)
		return
	}
	logger.Info("transcript flushed", "status", status, "location", handle.Location)
}
