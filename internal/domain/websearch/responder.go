package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// Search parameters for the web route. Advanced depth is more thorough and
// what the assistant always requests.
const (
	DefaultDepth      = "advanced"
	DefaultMaxResults = 5
)

const fallbackNoResults = "I couldn't find any web results for that right now — the search service may be unavailable. Please try again later or rephrase your question."

const synthesisPrompt = `Using ONLY the web search results below, answer the user's question.
Cite the source URL for every result you use. If the results don't fully answer the question, say so.

Search results:
%s

User Question: %s`

// Responder handles the web-search route: one provider search, then one
// completion call grounded in the hits.
type Responder struct {
	search   Searcher
	complete chat.CompletionClient
	log      *slog.Logger
}

// NewResponder returns the web-search handler.
func NewResponder(search Searcher, complete chat.CompletionClient, log *slog.Logger) *Responder {
	return &Responder{search: search, complete: complete, log: log}
}

// Respond implements chat.Handler.
//
// A failed provider call or zero hits yields the explicit fallback without
// a completion call — the model is never asked to synthesize from nothing.
func (r *Responder) Respond(ctx context.Context, query string, _ *chat.History) (string, error) {
	hits, err := r.search.Search(ctx, query, DefaultDepth, DefaultMaxResults)
	if err != nil {
		r.log.Warn("web search failed, serving fallback", "error", err)
		return fallbackNoResults, nil
	}
	if len(hits) == 0 {
		return fallbackNoResults, nil
	}

	resp, err := r.complete.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(synthesisPrompt, hitsBlock(hits), query)},
		},
	})
	if err != nil {
		return "", chat.WrapProviderErr("completion", err)
	}
	return resp.Content, nil
}

// hitsBlock renders hits as numbered (title, url, snippet) entries.
func hitsBlock(hits []SearchHit) string {
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n%s\n\n", i+1, h.Title, h.URL, h.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
