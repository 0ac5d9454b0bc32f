package dataquery

import (
	"fmt"
	"strings"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/tool"
)

// catalogPrompt renders the system instruction describing every registered
// tool and the strict JSON shape proposals must take.
func catalogPrompt(registry *tool.Registry) string {
	var b strings.Builder

	b.WriteString("You are an HR assistant with access to tools for searching company data.\n\n")

	for i, spec := range registry.Specs() {
		fmt.Fprintf(&b, "**TOOL %d: %s** - %s\n", i+1, spec.Name, spec.Description)
		if len(spec.Fields) > 0 {
			fmt.Fprintf(&b, "Fields: %s\n", strings.Join(spec.Fields, ", "))
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, `**OPERATORS** (all tools support these): %s

To answer the user's question, propose zero, one, or multiple tool calls.
Respond with ONLY a JSON array, no prose and no code fences:

[{"tool": "<tool name>", "key": "<field>", "value": "<value>", "operator": "<operator>"}]

**EXAMPLES**:
- "backend team members": [{"tool": "search_employees", "key": "team", "value": "Backend", "operator": "equals"}]
- "employees with more than 5 years experience": [{"tool": "search_employees", "key": "years_of_experience", "value": "5", "operator": "greater_than"}]
- "open JIRA tickets": [{"tool": "search_jira_tickets", "key": "status", "value": "Open", "operator": "equals"}]
- "failed deployments": [{"tool": "search_deployments", "key": "status", "value": "Failed", "operator": "equals"}]

If no tool can answer the question, respond with an empty array: []

IMPORTANT: Choose the appropriate tool based on what data the user is asking for.`,
		strings.Join(tool.Operators(), ", "))

	return b.String()
}
