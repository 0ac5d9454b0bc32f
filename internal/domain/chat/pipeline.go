package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/intent"
)

// recentWindow is how many prior turns the classifier sees for
// disambiguation.
const recentWindow = 6

// Classifier labels one query. The chat pipeline only needs this slice of
// the intent package.
type Classifier interface {
	Classify(ctx context.Context, query string, recent []string) (intent.Intent, error)
}

// Result is the outcome of one pipeline run.
type Result struct {
	Intent   intent.Intent
	Response string
	History  []Turn // full history including the new user and assistant turns
	Degraded bool   // classification failed and the default label was used
}

// Pipeline is the per-process entry point: stateless across invocations,
// every run reconstructs history from the caller-supplied prior turns.
// Built once at startup with all clients and shared resources resolved;
// no lazy initialization, no hidden globals.
type Pipeline struct {
	classifier Classifier
	handlers   Handlers
	log        *slog.Logger
}

// NewPipeline wires the classifier and the four terminal handlers.
func NewPipeline(classifier Classifier, handlers Handlers, log *slog.Logger) *Pipeline {
	return &Pipeline{classifier: classifier, handlers: handlers, log: log}
}

// Run executes one query: validate history, classify, dispatch to exactly
// one handler, and return the response plus updated history.
//
// On handler failure the error surfaces and no updated history is returned;
// persisting turns is the caller's concern and happens only on success.
func (p *Pipeline) Run(ctx context.Context, query string, prior []Turn) (*Result, error) {
	history, err := NewHistory(prior)
	if err != nil {
		return nil, err
	}
	recent := history.RecentLines(recentWindow)
	history.Append(RoleUser, query)

	label, cerr := p.classifier.Classify(ctx, query, recent)
	degraded := false
	if cerr != nil {
		// The default label is still usable; log degraded operation and
		// keep going rather than failing the request.
		var ce *intent.ClassificationError
		if !errors.As(cerr, &ce) {
			return nil, cerr
		}
		degraded = true
		p.log.Warn("intent classification degraded, using default route",
			"intent", label, "error", cerr)
	}

	handler := route(label, p.handlers)
	response, err := handler.Respond(ctx, query, history)
	if err != nil {
		return nil, err
	}
	history.Append(RoleAssistant, response)

	p.log.Info("pipeline run complete", "intent", label, "turns", history.Len())
	return &Result{
		Intent:   label,
		Response: response,
		History:  history.Turns(),
		Degraded: degraded,
	}, nil
}
