// Package httpapi exposes the session runner over HTTP.
package httpapi

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/pkg/logging"
	"github.com/sweetpotato0/roundtable/session"
	"github.com/sweetpotato0/roundtable/transcript"
)

// Handler handles HTTP requests.
type Handler struct {
	runner *session.Runner
	logger *slog.Logger
}

// NewHandler creates a new handler around the runner.
func NewHandler(runner *session.Runner) *Handler {
	return &Handler{
		runner: runner,
		logger: logging.WithComponent("httpapi"),
	}
}

// NewServer builds the echo server with routes registered.
func NewServer(runner *session.Runner) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	h := NewHandler(runner)
	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions", h.StartSession)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.DELETE("/v1/sessions/:session_id", h.CancelSession)

	e.GET("/health", h.Health)
}

// StartSessionRequest is the request to start a conversation.
type StartSessionRequest struct {
	Topic    string   `json:"topic"`
	Roster   []string `json:"roster,omitempty"`
	MaxTurns int      `json:"max_turns,omitempty"`
}

// TurnView is one transcript entry in API responses.
type TurnView struct {
	Index        int       `json:"index"`
	Speaker      string    `json:"speaker"`
	Kind         string    `json:"kind"`
	Text         string    `json:"text,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionView is the API representation of a session.
type SessionView struct {
	ID       string     `json:"id"`
	Topic    string     `json:"topic"`
	Status   string     `json:"status"`
	MaxTurns int        `json:"max_turns"`
	Roster   []string   `json:"roster"`
	Turns    []TurnView `json:"turns"`
	Location string     `json:"transcript_location,omitempty"`
}

// StartSession starts a new conversation session.
// POST /v1/sessions
func (h *Handler) StartSession(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	id, err := h.runner.Start(req.Topic, &session.StartOptions{
		Roster:   req.Roster,
		MaxTurns: req.MaxTurns,
	})
	if err != nil {
		if errors.IsConfiguration(err) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if stderrors.Is(err, errors.ErrSessionClosed) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
		}
		h.logger.Error("failed to start session", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to start session"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"id":     id,
		"status": string(session.StatusRunning),
	})
}

// GetSession returns a session and its transcript so far.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	id := c.Param("session_id")

	sess, err := h.runner.Get(id)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		h.logger.Error("failed to get session", "session_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get session"})
	}

	return c.JSON(http.StatusOK, sessionView(sess))
}

// CancelSession requests cancellation of a running session.
// DELETE /v1/sessions/:session_id
func (h *Handler) CancelSession(c echo.Context) error {
	id := c.Param("session_id")

	if err := h.runner.Cancel(id); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		h.logger.Error("failed to cancel session", "session_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to cancel session"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{"id": id})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func sessionView(sess *session.Session) *SessionView {
	turns := sess.Turns()
	view := &SessionView{
		ID:       sess.ID(),
		Topic:    sess.Topic(),
		Status:   string(sess.Status()),
		MaxTurns: sess.MaxTurns(),
		Roster:   sess.Roster(),
		Turns:    make([]TurnView, len(turns)),
	}
	for i, turn := range turns {
		view.Turns[i] = turnView(turn)
	}
	if handle := sess.Handle(); handle != nil {
		view.Location = handle.Location
	}
	return view
}

func turnView(turn transcript.Turn) TurnView {
	return TurnView{
		Index:        turn.Index,
		Speaker:      turn.Speaker,
		Kind:         string(turn.Outcome.Kind),
		Text:         turn.Outcome.Text,
		ErrorKind:    string(turn.Outcome.ErrorKind),
		ErrorMessage: turn.Outcome.ErrorMessage,
		CreatedAt:    turn.CreatedAt,
	}
}
