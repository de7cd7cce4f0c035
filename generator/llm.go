package generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
//
// Stream yields reply fragments in delivery order. A non-nil error ends the
// sequence; callers stop ranging after the first error.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error]
}

// LLMSettings 提供给具体实现的基础配置。The API key is always passed in by
// the caller; clients never read the environment.
type LLMSettings struct {
	APIKey  string
	BaseURL string
}

var ErrProviderUnavailable = errors.New("provider not configured")

// Router dispatches each prompt to the client registered for its model's
// provider.
type Router struct {
	clients map[Provider]LLMClient
}

func NewRouter() *Router {
	return &Router{clients: make(map[Provider]LLMClient)}
}

// Register binds a provider to a client. A nil client removes the binding.
func (r *Router) Register(p Provider, c LLMClient) {
	if c == nil {
		delete(r.clients, p)
		return
	}
	r.clients[p] = c
}

// Has reports whether any client is registered for p.
func (r *Router) Has(p Provider) bool {
	_, ok := r.clients[p]
	return ok
}

func (r *Router) client(m Model) (LLMClient, error) {
	p := m.Provider()
	if p == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, m)
	}
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, p)
	}
	return c, nil
}

func (r *Router) Complete(ctx context.Context, prompt Prompt) (string, error) {
	c, err := r.client(prompt.Model)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, prompt)
}

func (r *Router) Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error] {
	c, err := r.client(prompt.Model)
	if err != nil {
		return func(yield func(string, error) bool) { yield("", err) }
	}
	return c.Stream(ctx, prompt)
}
