package middleware

import (
	"context"

	"github.com/sweetpotato0/roundtable/message"
)

// Context represents the middleware execution context for one backend call.
type Context struct {
	// Session and turn being executed
	SessionID string
	TurnIndex int
	Speaker   string
	Topic     string

	// History handed to the backend
	History []*message.Message

	// Reply from the backend, set after the call succeeds
	Response *message.Message

	// Metadata for passing data between middlewares
	Metadata map[string]interface{}

	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context) *Context {
	return &Context{
		Metadata: make(map[string]interface{}),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	return c.context
}

// Middleware intercepts backend calls made by the orchestrator. Returning an
// error stops the chain; the orchestrator records it as the turn's outcome.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic around the next handler
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// Chain represents a sequence of middleware to be executed
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs all middlewares in the chain around the final handler
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

// SessionCloser is implemented by middlewares that hold per-session state.
type SessionCloser interface {
	Release(sessionID string)
}

// ReleaseSession notifies stateful middlewares that a session finished.
func (c *Chain) ReleaseSession(sessionID string) {
	for _, m := range c.middlewares {
		if closer, ok := m.(SessionCloser); ok {
			closer.Release(sessionID)
		}
	}
}
