package llm

import (
	"context"
	"testing"
)

type stubProvider struct{ id string }

func (s *stubProvider) ChatCompletion(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Content: s.id}, nil
}

func (s *stubProvider) Embed(_ context.Context, _ EmbedRequest) (*EmbedResponse, error) {
	return &EmbedResponse{}, nil
}

func (s *stubProvider) ModelInfo() ModelMeta { return ModelMeta{ID: s.id} }

func (s *stubProvider) HealthCheck(_ context.Context) error { return nil }

func TestRouter_Route_ReturnsDefaultProvider(t *testing.T) {
	t.Parallel()

	r := NewRouter(map[string]LLMProvider{"openrouter": &stubProvider{id: "a"}}, "openrouter")
	p, err := r.Route(context.Background())
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if p.ModelInfo().ID != "a" {
		t.Errorf("expected provider a, got %s", p.ModelInfo().ID)
	}
}

func TestRouter_Route_UnregisteredDefault_ReturnsError(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, "missing")
	if _, err := r.Route(context.Background()); err == nil {
		t.Error("expected error for unregistered default provider")
	}
}

func TestRouter_DelegatesAsProvider(t *testing.T) {
	t.Parallel()

	r := NewRouter(map[string]LLMProvider{"openrouter": &stubProvider{id: "a"}}, "openrouter")

	// The Router is itself an LLMProvider.
	var _ LLMProvider = r

	resp, err := r.ChatCompletion(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "a" {
		t.Errorf("expected delegation to provider a, got %q", resp.Content)
	}
	if _, err := r.Embed(context.Background(), EmbedRequest{}); err != nil {
		t.Errorf("Embed failed: %v", err)
	}
	if r.ModelInfo().ID != "a" {
		t.Errorf("expected default provider metadata, got %q", r.ModelInfo().ID)
	}
	if err := r.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestRouter_DelegationFailsWithoutDefault(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, "missing")
	if _, err := r.ChatCompletion(context.Background(), ChatRequest{}); err == nil {
		t.Error("expected error for unregistered default provider")
	}
	if got := r.ModelInfo(); got.ID != "" {
		t.Errorf("expected zero metadata, got %+v", got)
	}
}

func TestRouter_Register_AddsProvider(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, "late")
	r.Register("late", &stubProvider{id: "late"})
	if _, err := r.Route(context.Background()); err != nil {
		t.Errorf("Route after Register failed: %v", err)
	}
}
