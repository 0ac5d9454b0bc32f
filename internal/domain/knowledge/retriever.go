package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// DefaultTopK is how many chunks ground an answer.
const DefaultTopK = 3

// Fallback responses for the two recoverable empty cases. The retriever
// never calls the completion model with empty context and pretends the
// answer is grounded.
const (
	fallbackNoIndex   = "The knowledge base is not available right now, so I can't answer documentation questions. Please try again later or ask about employee and project data instead."
	fallbackNoResults = "I couldn't find any relevant documentation for that question. Try rephrasing, or ask about a specific policy or process."
)

const answerPrompt = `Using the following documentation, answer the user's question.
Be concise but comprehensive. Use markdown formatting for clarity.

Documentation:
%s

User Question: %s

Provide a helpful, well-formatted answer based on the documentation above.`

// Retriever handles the documentation route: embed the query, search the
// index, synthesize a grounded answer from the top-k chunks.
type Retriever struct {
	embed    EmbedClient
	complete chat.CompletionClient
	index    *Index
	topK     int
}

// NewRetriever returns the documentation handler.
func NewRetriever(embed EmbedClient, complete chat.CompletionClient, index *Index) *Retriever {
	return &Retriever{embed: embed, complete: complete, index: index, topK: DefaultTopK}
}

// Respond implements chat.Handler.
//
// Recoverable empty states (index unavailable, no hits) produce explicit
// fallback text, not errors. Provider failures surface typed: embedding
// rate limits are attributed to the embedding provider, distinct from
// completion throttling.
func (r *Retriever) Respond(ctx context.Context, query string, _ *chat.History) (string, error) {
	if !r.index.Available() {
		return fallbackNoIndex, nil
	}

	embResp, err := r.embed.Embed(ctx, llm.EmbedRequest{Texts: []string{query}})
	if err != nil {
		return "", chat.WrapProviderErr("embedding", err)
	}
	if len(embResp.Embeddings) == 0 {
		return "", fmt.Errorf("embedding provider returned no vector for query")
	}

	hits := r.index.Search(embResp.Embeddings[0], r.topK)
	if len(hits) == 0 {
		return fallbackNoResults, nil
	}

	resp, err := r.complete.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(answerPrompt, contextBlock(hits), query)},
		},
	})
	if err != nil {
		return "", chat.WrapProviderErr("completion", err)
	}
	return resp.Content, nil
}

// contextBlock labels each retrieved chunk with its source identifier so
// the model can acknowledge where statements come from.
func contextBlock(hits []Scored) string {
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] source: %s\n%s\n", i+1, h.Chunk.Source, h.Chunk.Text)
		if i < len(hits)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
