package tool

import (
	"fmt"
	"path/filepath"
)

// builtinDataset describes one JSON-backed dataset shipped with the app.
type builtinDataset struct {
	tool        string
	file        string
	description string
}

// builtins maps the seven shipped datasets to their tool names.
// File names are relative to the configured data directory.
var builtins = []builtinDataset{
	{
		tool:        "search_employees",
		file:        "employees.json",
		description: "Search employees by field: name, email, role, team, skills, location, years_of_experience, availability, sprint capacity.",
	},
	{
		tool:        "search_jira_tickets",
		file:        "jira_tickets.json",
		description: "Search JIRA tickets by field: key, summary, status, priority, assignee, sprint, story_points.",
	},
	{
		tool:        "search_deployments",
		file:        "deployments.json",
		description: "Search deployment records by field: service, environment, version, status, deployed_by, date.",
	},
	{
		tool:        "search_projects",
		file:        "projects.json",
		description: "Search projects by field: name, status, lead, team, start_date, deadline.",
	},
	{
		tool:        "search_sprints",
		file:        "sprints.json",
		description: "Search sprints by field: name, status, start_date, end_date, velocity, team.",
	},
	{
		tool:        "search_meetings",
		file:        "meetings.json",
		description: "Search meetings by field: title, organizer, attendees, date, recurring.",
	},
	{
		tool:        "search_services",
		file:        "services.json",
		description: "Search service catalog entries by field: name, owner_team, language, tier, status, on_call.",
	},
}

// RegisterBuiltins loads the shipped JSON datasets from dataDir and registers
// one tool per dataset. Called once at startup; the registry is read-only
// after this returns.
func RegisterBuiltins(registry *Registry, dataDir string) error {
	for _, b := range builtins {
		ds, err := LoadDataset(b.tool, filepath.Join(dataDir, b.file))
		if err != nil {
			return fmt.Errorf("register builtins: %w", err)
		}
		spec := Spec{Name: b.tool, Description: b.description, Fields: ds.Fields()}
		if err := registry.Register(spec, ds); err != nil {
			return fmt.Errorf("register builtins: %w", err)
		}
	}
	return nil
}
