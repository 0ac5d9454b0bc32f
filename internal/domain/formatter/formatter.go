// Package formatter turns the data-query engine's raw (tool, records)
// aggregate into user-facing prose. The agent's persona is configured in
// YAML so formatting policy can change without a rebuild; when formatting
// fails, the engine falls back to the raw rendering, so this component is
// never on the failure path.
package formatter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/dataquery"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// AgentConfig is the persona for the response formatter agent.
type AgentConfig struct {
	Role         string `yaml:"role"`
	Goal         string `yaml:"goal"`
	Backstory    string `yaml:"backstory"`
	Instructions string `yaml:"instructions"`
}

// Config is the top level of the agents YAML file.
type Config struct {
	Agents struct {
		ResponseFormatter AgentConfig `yaml:"response_formatter_agent"`
	} `yaml:"agents"`
}

// DefaultConfig is used when no YAML file is supplied.
func DefaultConfig() Config {
	var cfg Config
	cfg.Agents.ResponseFormatter = AgentConfig{
		Role:         "Response Formatter",
		Goal:         "Turn raw HR data query results into clear, professional answers.",
		Backstory:    "You specialize in presenting structured company data (employees, tickets, deployments, projects, sprints, meetings, services) to HR and engineering staff.",
		Instructions: "Summarize the records that answer the question. Use markdown with bullet points or short tables. Present every relevant field from the records; never invent data that is not in them.",
	}
	return cfg
}

// LoadConfig reads the agents YAML file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("formatter config: read %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("formatter config: parse %q: %w", path, err)
	}
	if strings.TrimSpace(cfg.Agents.ResponseFormatter.Role) == "" {
		return Config{}, fmt.Errorf("formatter config: %q missing agents.response_formatter_agent.role", path)
	}
	return cfg, nil
}

// Formatter implements dataquery.Formatter with one completion call.
type Formatter struct {
	client chat.CompletionClient
	agent  AgentConfig
}

// New returns a Formatter using the configured agent persona.
func New(client chat.CompletionClient, cfg Config) *Formatter {
	return &Formatter{client: client, agent: cfg.Agents.ResponseFormatter}
}

// Format renders the aggregate through the formatter agent.
func (f *Formatter) Format(ctx context.Context, query string, agg *dataquery.Aggregate) (string, error) {
	payload, err := json.MarshalIndent(aggregatePayload(agg), "", "  ")
	if err != nil {
		return "", fmt.Errorf("format: encode aggregate: %w", err)
	}

	resp, err := f.client.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: f.systemPrompt()},
			{Role: "user", Content: fmt.Sprintf("Question: %s\n\nQuery results:\n%s", query, payload)},
		},
	})
	if err != nil {
		return "", chat.WrapProviderErr("completion", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("format: empty formatter response")
	}
	return resp.Content, nil
}

func (f *Formatter) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n", f.agent.Role)
	if f.agent.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", f.agent.Goal)
	}
	if f.agent.Backstory != "" {
		fmt.Fprintf(&b, "Background: %s\n", f.agent.Backstory)
	}
	if f.agent.Instructions != "" {
		b.WriteByte('\n')
		b.WriteString(f.agent.Instructions)
	}
	return b.String()
}

// aggregatePayload is the stable JSON shape handed to the agent.
func aggregatePayload(agg *dataquery.Aggregate) map[string]any {
	results := make([]map[string]any, 0, len(agg.Results))
	for _, r := range agg.Results {
		results = append(results, map[string]any{
			"tool":    r.Tool,
			"count":   len(r.Records),
			"records": r.Records,
		})
	}
	return map[string]any{"results": results}
}
