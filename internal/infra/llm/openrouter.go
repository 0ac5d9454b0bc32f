// Package llm — OpenRouter HTTP adapter.
// OpenRouterProvider calls the OpenRouter REST API (OpenAI-compatible) using
// stdlib net/http. Endpoints used:
//   - POST /chat/completions — non-streaming chat completion
//   - POST /embeddings      — batch text embedding
//   - GET  /models          — health check (lists available models)
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	mimeJSON            = "application/json"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"

	providerOpenRouter = "openrouter"

	defaultHTTPTimeout = 30 * time.Second
)

// OpenRouterProvider implements LLMProvider against the OpenRouter API.
type OpenRouterProvider struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
}

// NewOpenRouterProvider creates an OpenRouterProvider with a 30s default timeout.
// baseURL is typically "https://openrouter.ai/api/v1".
func NewOpenRouterProvider(baseURL, apiKey, chatModel, embedModel string) *OpenRouterProvider {
	return &OpenRouterProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// ─── internal OpenAI-compatible JSON types ──────────────────────────────────

type openRouterChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatRequest struct {
	Model       string                  `json:"model"`
	Messages    []openRouterChatMessage `json:"messages"`
	Temperature float32                 `json:"temperature,omitempty"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Stream      bool                    `json:"stream"`
}

type openRouterChatResponse struct {
	Choices []struct {
		Message      openRouterChatMessage `json:"message"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type openRouterEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openRouterEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *OpenRouterProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.chatModel
	}

	msgs := make([]openRouterChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openRouterChatMessage(m)
	}

	body, err := json.Marshal(openRouterChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/chat/completions", "chat", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var chatResp openRouterChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&chatResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{
			Provider: providerOpenRouter, Op: "chat", Kind: ErrUnknown,
			Err: fmt.Errorf("response contained no choices"),
		}
	}
	return &ChatResponse{
		Content:    chatResp.Choices[0].Message.Content,
		StopReason: chatResp.Choices[0].FinishReason,
		Tokens:     chatResp.Usage.TotalTokens,
	}, nil
}

// Embed computes embeddings for all texts in a single POST /embeddings call.
func (p *OpenRouterProvider) Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error) {
	if len(req.Texts) == 0 {
		return &EmbedResponse{Embeddings: [][]float32{}}, nil
	}

	model := req.Model
	if model == "" {
		model = p.embedModel
	}

	body, err := json.Marshal(openRouterEmbedRequest{Model: model, Input: req.Texts})
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/embeddings", "embed", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var embedResp openRouterEmbedResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&embedResp); decodeErr != nil {
		return nil, fmt.Errorf("decode embed response: %w", decodeErr)
	}

	// Order by index — the API may return data out of request order.
	embeddings := make([][]float32, len(req.Texts))
	for _, d := range embedResp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			continue
		}
		embeddings[d.Index] = d.Embedding
	}
	return &EmbedResponse{Embeddings: embeddings, Tokens: embedResp.Usage.TotalTokens}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *OpenRouterProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.chatModel,
		Provider:  providerOpenRouter,
		Version:   "v1",
		MaxTokens: 128000,
	}
}

// HealthCheck calls GET /models — returns nil if OpenRouter is reachable.
func (p *OpenRouterProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("openrouter healthcheck: build request: %w", err)
	}
	req.Header.Set(headerAuthorization, "Bearer "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Provider: providerOpenRouter, Op: "healthcheck", Kind: classifyErr(err), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider: providerOpenRouter, Op: "healthcheck",
			Kind: classifyStatus(resp.StatusCode),
			Err:  fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns the response body.
// Non-2xx statuses and transport failures are wrapped in ProviderError with a
// classified kind. Caller is responsible for closing the returned ReadCloser.
func (p *OpenRouterProvider) doPost(ctx context.Context, path, op string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAuthorization, "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: providerOpenRouter, Op: op, Kind: classifyErr(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close() //nolint:errcheck
		return nil, &ProviderError{
			Provider: providerOpenRouter, Op: op,
			Kind: classifyStatus(resp.StatusCode),
			Err:  fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return resp.Body, nil
}
