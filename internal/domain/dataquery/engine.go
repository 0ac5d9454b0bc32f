// Package dataquery implements the data_query route: LLM-directed tool-call
// extraction, per-call validation, and concurrent dispatch across the
// registered datasets. The engine produces a raw (tool, records) aggregate;
// turning that into prose belongs to the downstream formatter.
package dataquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/tool"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// NoMatchingRecords is the explicit empty-result marker. It is the raw
// answer when no valid tool calls were produced or every execution came
// back empty.
const NoMatchingRecords = "no matching records"

// maxConcurrentCalls bounds parallel tool executions per request.
const maxConcurrentCalls = 4

// ToolCall is one validated, executable call proposed by the model.
type ToolCall struct {
	Tool     string
	Key      string
	Value    string
	Operator tool.Operator
}

// DroppedCall records why a proposed call was rejected or failed. Dropping
// is per-call: one bad proposal never aborts the rest.
type DroppedCall struct {
	Tool   string
	Reason string
}

// ToolResult pairs a tool name with its raw result set.
type ToolResult struct {
	Tool    string
	Records []tool.Record
}

// Aggregate is the engine's raw output, handed to the downstream formatter.
// Results preserve the order calls were proposed in.
type Aggregate struct {
	Query   string
	Results []ToolResult
	Dropped []DroppedCall
}

// Empty reports whether the aggregate carries no records at all.
func (a *Aggregate) Empty() bool {
	for _, r := range a.Results {
		if len(r.Records) > 0 {
			return false
		}
	}
	return true
}

// Formatter turns a raw aggregate into user-facing prose. Implementations
// that fail cause the engine to fall back to a plain rendering.
type Formatter interface {
	Format(ctx context.Context, query string, agg *Aggregate) (string, error)
}

// Engine handles the data_query route.
type Engine struct {
	client    chat.CompletionClient
	registry  *tool.Registry
	formatter Formatter // optional; nil means raw rendering
	log       *slog.Logger
}

// NewEngine returns the data-query handler. formatter may be nil.
func NewEngine(client chat.CompletionClient, registry *tool.Registry, formatter Formatter, log *slog.Logger) *Engine {
	return &Engine{client: client, registry: registry, formatter: formatter, log: log}
}

// Query runs extraction, validation, and dispatch, returning the raw
// aggregate. Provider failures surface typed; everything downstream of a
// successful completion call is recovered into the aggregate itself.
func (e *Engine) Query(ctx context.Context, query string) (*Aggregate, error) {
	resp, err := e.client.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: catalogPrompt(e.registry)},
			{Role: "user", Content: query},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, chat.WrapProviderErr("completion", err)
	}

	calls, dropped := e.parseAndValidate(resp.Content)
	agg := &Aggregate{Query: query, Dropped: dropped}
	if len(calls) == 0 {
		return agg, nil
	}

	results, execDropped := e.execute(ctx, calls)
	agg.Results = results
	agg.Dropped = append(agg.Dropped, execDropped...)
	return agg, nil
}

// Respond implements chat.Handler: run the query, then format the raw
// aggregate. A failing formatter degrades to the plain rendering, never to
// an error — the records were already retrieved.
func (e *Engine) Respond(ctx context.Context, query string, _ *chat.History) (string, error) {
	agg, err := e.Query(ctx, query)
	if err != nil {
		return "", err
	}
	if agg.Empty() {
		return NoMatchingRecords, nil
	}

	if e.formatter != nil {
		text, err := e.formatter.Format(ctx, query, agg)
		if err == nil {
			return text, nil
		}
		e.log.Warn("formatter failed, returning raw aggregate", "error", err)
	}
	return renderRaw(agg), nil
}

// rawCall is the untrusted wire shape proposed calls arrive in.
type rawCall struct {
	Tool     string `json:"tool"`
	Key      string `json:"key"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

// parseAndValidate treats the model output as untrusted input: extract the
// JSON array, then check every call against the registry before it can run.
func (e *Engine) parseAndValidate(content string) ([]ToolCall, []DroppedCall) {
	raw := extractJSONArray(content)
	if raw == "" {
		return nil, nil
	}

	var candidates []rawCall
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		e.log.Warn("tool call proposal not parseable", "error", err)
		return nil, nil
	}

	var (
		calls   []ToolCall
		dropped []DroppedCall
	)
	for _, c := range candidates {
		if !e.registry.Has(c.Tool) {
			dropped = append(dropped, DroppedCall{Tool: c.Tool, Reason: fmt.Sprintf("unknown tool %q", c.Tool)})
			continue
		}
		op := c.Operator
		if strings.TrimSpace(op) == "" {
			op = string(tool.OpEquals)
		}
		parsedOp, err := tool.ParseOperator(op)
		if err != nil {
			dropped = append(dropped, DroppedCall{Tool: c.Tool, Reason: err.Error()})
			continue
		}
		if strings.TrimSpace(c.Key) == "" {
			dropped = append(dropped, DroppedCall{Tool: c.Tool, Reason: "missing required parameter: key"})
			continue
		}
		if strings.TrimSpace(c.Value) == "" {
			dropped = append(dropped, DroppedCall{Tool: c.Tool, Reason: "missing required parameter: value"})
			continue
		}
		calls = append(calls, ToolCall{Tool: c.Tool, Key: c.Key, Value: c.Value, Operator: parsedOp})
	}
	return calls, dropped
}

// execute dispatches the validated calls. Calls are independent pure reads,
// so they run concurrently; results land in proposal order. An executor
// failure drops that one call and the rest proceed.
func (e *Engine) execute(ctx context.Context, calls []ToolCall) ([]ToolResult, []DroppedCall) {
	results := make([]*ToolResult, len(calls))
	failures := make([]*DroppedCall, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCalls)
	for i, call := range calls {
		g.Go(func() error {
			executor, err := e.registry.Get(call.Tool)
			if err != nil {
				failures[i] = &DroppedCall{Tool: call.Tool, Reason: err.Error()}
				return nil
			}
			records, err := executor.Execute(gctx, call.Key, call.Value, call.Operator)
			if err != nil {
				failures[i] = &DroppedCall{Tool: call.Tool, Reason: fmt.Sprintf("execution failed: %v", err)}
				return nil
			}
			results[i] = &ToolResult{Tool: call.Tool, Records: records}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines always return nil; failures are recorded per-call

	var (
		out     []ToolResult
		dropped []DroppedCall
	)
	for i := range calls {
		if failures[i] != nil {
			dropped = append(dropped, *failures[i])
			continue
		}
		if results[i] != nil {
			out = append(out, *results[i])
		}
	}
	return out, dropped
}

// extractJSONArray finds the outermost JSON array in model output, which
// may be wrapped in code fences or prose.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

// renderRaw is the formatter-less rendering of an aggregate: a compact
// JSON document per tool result.
func renderRaw(agg *Aggregate) string {
	var b strings.Builder
	for _, r := range agg.Results {
		if len(r.Records) == 0 {
			continue
		}
		enc, err := json.MarshalIndent(r.Records, "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "Results from %s (%d records):\n%s\n\n", r.Tool, len(r.Records), enc)
	}
	return strings.TrimRight(b.String(), "\n")
}
