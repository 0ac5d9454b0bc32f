package chat

import (
	"context"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/intent"
)

// Handler is one terminal answer strategy. Respond receives the raw query
// and the history including the already-appended user turn, and returns the
// assistant response text.
type Handler interface {
	Respond(ctx context.Context, query string, history *History) (string, error)
}

// Handlers binds the four routes. All fields are required.
type Handlers struct {
	Conversation  Handler
	Documentation Handler
	DataQuery     Handler
	WebSearch     Handler
}

// route maps an intent label to exactly one handler. The switch is
// exhaustive over the closed label set; the default arm only fires for a
// label that bypassed intent.Parse and falls back to the data-query route,
// mirroring the classifier's own default.
func route(label intent.Intent, h Handlers) Handler {
	switch label {
	case intent.Conversation:
		return h.Conversation
	case intent.Documentation:
		return h.Documentation
	case intent.DataQuery:
		return h.DataQuery
	case intent.WebSearch:
		return h.WebSearch
	default:
		return h.DataQuery
	}
}
