package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
	"github.com/sweetpotato0/roundtable/provider"
	"github.com/sweetpotato0/roundtable/session"
	"github.com/sweetpotato0/roundtable/transcript"
)

type echoProvider struct {
	name string
}

func (p *echoProvider) Name() string { return p.name }

func (p *echoProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	return &provider.Response{Message: message.NewSpeakerMessage(p.name, "reply from "+p.name)}, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*transcript.Record
}

func (s *memoryStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]*transcript.Record)
	}
	s.records[record.ID] = record
	return "mem://" + record.ID, nil
}

func (s *memoryStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return record, nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	registry := provider.NewRegistry()
	for _, name := range []string{"gpt", "gemini"} {
		if err := registry.Register(&echoProvider{name: name}); err != nil {
			t.Fatalf("Failed to register provider: %v", err)
		}
	}
	orc := session.NewOrchestrator(registry, &memoryStore{}, nil, nil, session.Policy{})
	runner := session.NewRunner(orc, session.RunnerConfig{
		DefaultRoster:   []string{"gpt", "gemini"},
		DefaultMaxTurns: 4,
		MaxConcurrent:   2,
	})
	return NewHandler(runner)
}

func startSession(t *testing.T, h *Handler, body string) (int, map[string]string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.StartSession(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return rec.Code, resp
}

func TestStartSessionAccepted(t *testing.T) {
	h := newTestHandler(t)

	code, resp := startSession(t, h, `{"topic":"compilers"}`)
	if code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}
	if resp["id"] == "" {
		t.Errorf("Expected session id in response")
	}
	if resp["status"] != "running" {
		t.Errorf("Expected running status, got %q", resp["status"])
	}
}

func TestStartSessionValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing topic", `{}`},
		{"unknown backend", `{"topic":"t","roster":["nonexistent"]}`},
		{"malformed json", `{"topic":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := startSession(t, h, tt.body)
			if code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", code)
			}
			if resp["error"] == "" {
				t.Errorf("Expected error message in response")
			}
		})
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/no-such-id", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("no-such-id")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestGetSessionTranscript(t *testing.T) {
	h := newTestHandler(t)

	code, resp := startSession(t, h, `{"topic":"observability","max_turns":2}`)
	if code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}
	id := resp["id"]

	e := echo.New()
	deadline := time.Now().Add(5 * time.Second)
	var view SessionView
	for {
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("session_id")
		c.SetParamValues(id)

		if err := h.GetSession(c); err != nil {
			t.Fatalf("Handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if view.Status == "completed" || view.Status == "failed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Session %s did not finish, status %s", id, view.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if view.Status != "completed" {
		t.Fatalf("Expected completed session, got %s", view.Status)
	}
	if len(view.Turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(view.Turns))
	}
	if view.Turns[0].Speaker != "gpt" || view.Turns[1].Speaker != "gemini" {
		t.Errorf("Unexpected speakers: %s, %s", view.Turns[0].Speaker, view.Turns[1].Speaker)
	}
	if view.Location == "" {
		t.Errorf("Expected transcript location after completion")
	}
}

func TestCancelSession(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	_, resp := startSession(t, h, `{"topic":"long running","max_turns":100}`)
	id := resp["id"]

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)

	if err := h.CancelSession(c); err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
}
