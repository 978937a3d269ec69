package middleware

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/roundtable/pkg/logging"
)

// CallLogger logs each backend call with its duration and outcome.
type CallLogger struct {
	logger *slog.Logger
}

// NewCallLogger creates a call logging middleware
func NewCallLogger(logger *slog.Logger) *CallLogger {
	if logger == nil {
		logger = logging.WithComponent("call_logger")
	}
	return &CallLogger{logger: logger}
}

// Name returns the middleware name
func (m *CallLogger) Name() string {
	return "CallLogger"
}

// Execute logs the call
func (m *CallLogger) Execute(ctx *Context, next Handler) error {
	start := time.Now()
	err := next(ctx)
	duration := time.Since(start)

	if err != nil {
		m.logger.Warn("backend call failed",
			"session_id", ctx.SessionID,
			"turn", ctx.TurnIndex,
			"speaker", ctx.Speaker,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return err
	}

	m.logger.Info("backend call completed",
		"session_id", ctx.SessionID,
		"turn", ctx.TurnIndex,
		"speaker", ctx.Speaker,
		"duration_ms", duration.Milliseconds())
	return nil
}
