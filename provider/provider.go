package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/message"
)

// Request bundles the inputs for one backend invocation: the session topic
// and the full prior conversation in order. Implementations must not mutate
// the history.
type Request struct {
	Topic   string
	History []*message.Message
}

// Response carries the single reply produced by a backend.
type Response struct {
	Message *message.Message
}

// Provider is the uniform contract every model backend satisfies. One call
// to Generate performs exactly one outbound request; retry policy belongs to
// the orchestrator, never the adapter.
type Provider interface {
	// Name returns the speaker id this backend answers as.
	Name() string

	// Generate produces one reply for the given conversation, or fails with
	// a *errors.ProviderError describing why.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Registry maps speaker ids to their backends. The orchestrator resolves
// speakers through the registry and never branches on backend identity.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its name.
func (r *Registry) Register(p Provider) error {
	if p == nil || p.Name() == "" {
		return fmt.Errorf("provider must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; ok {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Get resolves a speaker id to its backend.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("no provider registered for speaker %q", name)
	}
	return p, nil
}

// Names returns the registered speaker ids in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassifyStatus maps an HTTP status from a backend into a provider error
// kind. Used by implementations whose SDKs surface raw status codes.
func ClassifyStatus(providerName string, status int, detail string) *errors.ProviderError {
	var kind errors.ProviderErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = errors.KindAuthFailure
	case status == http.StatusTooManyRequests:
		kind = errors.KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = errors.KindTimeout
	default:
		kind = errors.KindUnknown
	}
	return errors.NewProviderError(kind, providerName, detail)
}

// ClassifyContext maps context cancellation and deadline errors. Returns nil
// when err is not a context error.
func ClassifyContext(providerName string, err error) *errors.ProviderError {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewProviderError(errors.KindTimeout, providerName, "call deadline exceeded").WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return errors.NewProviderError(errors.KindTimeout, providerName, "call canceled").WithCause(err)
	default:
		return nil
	}
}
