package intent

import (
	"context"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// CompletionClient is the slice of the LLM provider the classifier needs.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// ClassificationError reports that the completion call itself failed.
// The accompanying Intent is still the usable Default — callers route on it
// and log degraded operation instead of aborting the request.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return "intent classification: " + e.Err.Error()
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier produces one Intent label per query via a single constrained
// completion call.
type Classifier struct {
	client CompletionClient
}

// NewClassifier returns a Classifier backed by the given completion client.
func NewClassifier(client CompletionClient) *Classifier {
	return &Classifier{client: client}
}

// Classify labels the query. It never returns an unusable Intent:
//   - transport/rate-limit errors → (Default, *ClassificationError)
//   - empty or out-of-enum model output → (Default, nil)
//   - recognized label → (label, nil)
func (c *Classifier) Classify(ctx context.Context, query string, recent []string) (Intent, error) {
	resp, err := c.client.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(query, recent)},
		},
		Temperature: 0,
	})
	if err != nil {
		return Default, &ClassificationError{Err: err}
	}

	label, _ := Parse(resp.Content)
	return label, nil
}
