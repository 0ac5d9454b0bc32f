// Package llm — LLMProvider interface.
// Adapters (OpenRouter, Ollama, etc.) implement this interface so the
// application is never coupled to a specific LLM vendor.
package llm

import "context"

// LLMProvider is the model-agnostic interface for LLM operations.
type LLMProvider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Embed computes dense vector representations for a batch of texts.
	Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
