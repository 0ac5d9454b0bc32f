package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/intent"
)

// stubHandler records invocations and returns canned output.
type stubHandler struct {
	name     string
	response string
	err      error
	calls    int
}

func (s *stubHandler) Respond(_ context.Context, _ string, _ *History) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// stubClassifier returns a fixed label and optional error.
type stubClassifier struct {
	label intent.Intent
	err   error
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ []string) (intent.Intent, error) {
	return s.label, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fourHandlers() (Handlers, map[intent.Intent]*stubHandler) {
	byIntent := map[intent.Intent]*stubHandler{
		intent.Conversation:  {name: "conversation", response: "hi there"},
		intent.Documentation: {name: "documentation", response: "per the docs"},
		intent.DataQuery:     {name: "data_query", response: "3 records"},
		intent.WebSearch:     {name: "web_search", response: "per the web"},
	}
	return Handlers{
		Conversation:  byIntent[intent.Conversation],
		Documentation: byIntent[intent.Documentation],
		DataQuery:     byIntent[intent.DataQuery],
		WebSearch:     byIntent[intent.WebSearch],
	}, byIntent
}

func TestPipeline_DispatchesToExactlyOneHandler(t *testing.T) {
	t.Parallel()

	for _, label := range intent.All() {
		handlers, byIntent := fourHandlers()
		p := NewPipeline(&stubClassifier{label: label}, handlers, testLogger())

		res, err := p.Run(context.Background(), "some query", nil)
		if err != nil {
			t.Fatalf("Run(%s) failed: %v", label, err)
		}
		if res.Intent != label {
			t.Errorf("expected intent %q, got %q", label, res.Intent)
		}

		total := 0
		for l, h := range byIntent {
			total += h.calls
			if l == label && h.calls != 1 {
				t.Errorf("%s handler called %d times; want 1", l, h.calls)
			}
		}
		if total != 1 {
			t.Errorf("expected exactly one handler invocation for %s, got %d", label, total)
		}
	}
}

func TestPipeline_AppendsUserAndAssistantTurns(t *testing.T) {
	t.Parallel()

	handlers, _ := fourHandlers()
	p := NewPipeline(&stubClassifier{label: intent.Conversation}, handlers, testLogger())

	prior := []Turn{
		{Role: RoleUser, Text: "earlier question"},
		{Role: RoleAssistant, Text: "earlier answer"},
	}
	res, err := p.Run(context.Background(), "Hello!", prior)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.History) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(res.History))
	}
	if res.History[2].Role != RoleUser || res.History[2].Text != "Hello!" {
		t.Errorf("user turn not appended: %+v", res.History[2])
	}
	if res.History[3].Role != RoleAssistant || res.History[3].Text != res.Response {
		t.Errorf("assistant turn not appended: %+v", res.History[3])
	}
}

func TestPipeline_InvalidHistory_Surfaced(t *testing.T) {
	t.Parallel()

	handlers, byIntent := fourHandlers()
	p := NewPipeline(&stubClassifier{label: intent.Conversation}, handlers, testLogger())

	_, err := p.Run(context.Background(), "q", []Turn{{Role: "narrator", Text: "x"}})
	if !errors.Is(err, ErrInvalidHistory) {
		t.Fatalf("expected ErrInvalidHistory, got %v", err)
	}
	for _, h := range byIntent {
		if h.calls != 0 {
			t.Error("no handler should run on invalid history")
		}
	}
}

func TestPipeline_ClassificationError_DefaultsAndDegrades(t *testing.T) {
	t.Parallel()

	handlers, byIntent := fourHandlers()
	classifier := &stubClassifier{
		label: intent.Default,
		err:   &intent.ClassificationError{Err: errors.New("provider down")},
	}
	p := NewPipeline(classifier, handlers, testLogger())

	res, err := p.Run(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Intent != intent.DataQuery {
		t.Errorf("expected default data_query intent, got %q", res.Intent)
	}
	if !res.Degraded {
		t.Error("expected Degraded=true on classification error")
	}
	if byIntent[intent.DataQuery].calls != 1 {
		t.Error("expected data_query handler to run")
	}
}

func TestPipeline_HandlerFailure_NoHistoryReturned(t *testing.T) {
	t.Parallel()

	handlers, byIntent := fourHandlers()
	byIntent[intent.WebSearch].err = errors.New("handler blew up")
	p := NewPipeline(&stubClassifier{label: intent.WebSearch}, handlers, testLogger())

	res, err := p.Run(context.Background(), "news?", nil)
	if err == nil {
		t.Fatal("expected handler error to surface")
	}
	if res != nil {
		t.Error("no result (and no history to persist) expected on handler failure")
	}
}

func TestRoute_Exhaustive(t *testing.T) {
	t.Parallel()

	handlers, byIntent := fourHandlers()
	for _, label := range intent.All() {
		h := route(label, handlers)
		if h != byIntent[label] {
			t.Errorf("route(%s) returned wrong handler", label)
		}
	}
	// Labels that bypassed intent.Parse fall back to the data-query route.
	if h := route(intent.Intent("bogus"), handlers); h != byIntent[intent.DataQuery] {
		t.Error("unexpected handler for out-of-enum label")
	}
}
