package chat

import (
	"context"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// CompletionClient is the slice of the LLM provider the chat handlers need.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// conversationPersona is the fixed system instruction for the casual route.
const conversationPersona = `You are HRNexus, an AI assistant for your company's HR and engineering operations.

Your capabilities:
- Answer questions about company policies and processes (code review, deployment, onboarding, etc.)
- Search employee information (teams, skills, locations, capacity)
- Query JIRA tickets (status, assignments, sprints, priorities)
- Check deployment history (production, staging, versions, health)
- View project details (progress, teams, tech stack, budgets)
- Track sprint metrics (velocity, story points, burndown)

When greeting users or answering identity questions:
- Be friendly and professional
- Briefly introduce yourself and your main capabilities
- Encourage users to ask specific questions about employees, projects, documentation, etc.

Keep responses concise and helpful.`

// maxHistoryTurns bounds how much conversation is replayed to the model.
const maxHistoryTurns = 20

// Responder handles the conversation route: one completion call with the
// persona instruction plus bounded history. No retrieval, no tools.
type Responder struct {
	client CompletionClient
}

// NewResponder returns the conversational handler.
func NewResponder(client CompletionClient) *Responder {
	return &Responder{client: client}
}

// Respond issues the completion call and returns the reply text.
// Provider failures surface through the pipeline error taxonomy; no retry.
func (r *Responder) Respond(ctx context.Context, _ string, history *History) (string, error) {
	turns := history.Turns()
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}

	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: "system", Content: conversationPersona})
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Text})
	}

	resp, err := r.client.ChatCompletion(ctx, llm.ChatRequest{Messages: messages})
	if err != nil {
		return "", WrapProviderErr("completion", err)
	}
	return resp.Content, nil
}
