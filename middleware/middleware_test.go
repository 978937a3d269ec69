package middleware

import (
	"context"
	"testing"

	"github.com/sweetpotato0/roundtable/errors"
)

type recordingMiddleware struct {
	name  string
	calls *[]string
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) Execute(ctx *Context, next Handler) error {
	*m.calls = append(*m.calls, m.name)
	return next(ctx)
}

func TestChainOrder(t *testing.T) {
	var calls []string
	chain := NewChain(
		&recordingMiddleware{name: "first", calls: &calls},
		&recordingMiddleware{name: "second", calls: &calls},
	)

	ctx := NewContext(context.Background())
	err := chain.Execute(ctx, func(c *Context) error {
		calls = append(calls, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("Chain execution failed: %v", err)
	}

	want := []string{"first", "second", "handler"}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Expected call %d to be %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestEmptyChainRunsHandler(t *testing.T) {
	chain := NewChain()
	ran := false
	err := chain.Execute(NewContext(context.Background()), func(c *Context) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Errorf("Empty chain should run the final handler")
	}
}

func TestCallLimiter(t *testing.T) {
	limiter := NewCallLimiter(2)
	ctx := NewContext(context.Background())
	ctx.SessionID = "sess1"
	ctx.Speaker = "gpt"

	noop := func(c *Context) error { return nil }

	if err := limiter.Execute(ctx, noop); err != nil {
		t.Fatalf("First call should pass: %v", err)
	}
	if err := limiter.Execute(ctx, noop); err != nil {
		t.Fatalf("Second call should pass: %v", err)
	}

	err := limiter.Execute(ctx, noop)
	if err == nil {
		t.Fatalf("Third call should be rejected")
	}
	perr, ok := err.(*errors.ProviderError)
	if !ok || perr.Kind != errors.KindRateLimited {
		t.Errorf("Expected rate_limited provider error, got %v", err)
	}

	// Other sessions have their own budget.
	other := NewContext(context.Background())
	other.SessionID = "sess2"
	if err := limiter.Execute(other, noop); err != nil {
		t.Errorf("Other session should not share the budget: %v", err)
	}

	// Releasing resets the count.
	limiter.Release("sess1")
	if err := limiter.Execute(ctx, noop); err != nil {
		t.Errorf("Released session should start fresh: %v", err)
	}
}

func TestChainReleasesStatefulMiddlewares(t *testing.T) {
	limiter := NewCallLimiter(1)
	chain := NewChain(limiter)
	ctx := NewContext(context.Background())
	ctx.SessionID = "sess1"
	noop := func(c *Context) error { return nil }

	if err := chain.Execute(ctx, noop); err != nil {
		t.Fatalf("First call should pass: %v", err)
	}
	if err := chain.Execute(ctx, noop); err == nil {
		t.Fatalf("Second call should exhaust the budget")
	}

	chain.ReleaseSession("sess1")
	if err := chain.Execute(ctx, noop); err != nil {
		t.Errorf("Released session should start fresh: %v", err)
	}
}
