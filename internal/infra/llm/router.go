// Package llm — LLM provider router.
// Router selects a LLMProvider at request time.
// Current behaviour: pass-through to defaultProvider.
package llm

import (
	"context"
	"fmt"
)

// Router selects a LLMProvider for each request.
type Router struct {
	providers       map[string]LLMProvider
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]LLMProvider, defaultProvider string) *Router {
	// defensive copy so the caller cannot mutate the internal map.
	ps := make(map[string]LLMProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{providers: ps, defaultProvider: defaultProvider}
}

// Register adds (or replaces) a provider under the given key.
// Useful for dynamic reconfiguration or tests.
func (r *Router) Register(key string, p LLMProvider) {
	r.providers[key] = p
}

// Route returns the provider for the current request.
// Returns an error if the default provider is not registered.
func (r *Router) Route(_ context.Context) (LLMProvider, error) {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", r.defaultProvider, r.keys())
	}
	return p, nil
}

// ChatCompletion routes to the selected provider. The Router itself
// satisfies LLMProvider so callers stay vendor-agnostic.
func (r *Router) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p, err := r.Route(ctx)
	if err != nil {
		return nil, err
	}
	return p.ChatCompletion(ctx, req)
}

// Embed routes to the selected provider.
func (r *Router) Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error) {
	p, err := r.Route(ctx)
	if err != nil {
		return nil, err
	}
	return p.Embed(ctx, req)
}

// ModelInfo reports the default provider's metadata, or zero metadata if it
// is not registered.
func (r *Router) ModelInfo() ModelMeta {
	p, ok := r.providers[r.defaultProvider]
	if !ok {
		return ModelMeta{}
	}
	return p.ModelInfo()
}

// HealthCheck checks the default provider.
func (r *Router) HealthCheck(ctx context.Context) error {
	p, err := r.Route(ctx)
	if err != nil {
		return err
	}
	return p.HealthCheck(ctx)
}

// keys returns the registered provider names (for error messages).
func (r *Router) keys() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	return out
}
