package tool

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtureJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadDataset_TopLevelArray(t *testing.T) {
	t.Parallel()

	path := writeFixtureJSON(t, "employees.json", `[
		{"name": "Alice", "team": "Backend"},
		{"name": "Bob", "team": "Frontend"}
	]`)

	ds, err := LoadDataset("search_employees", path)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if len(ds.records) != 2 {
		t.Errorf("expected 2 records, got %d", len(ds.records))
	}
}

func TestLoadDataset_WrappedObject(t *testing.T) {
	t.Parallel()

	path := writeFixtureJSON(t, "sprints.json", `{"sprints": [
		{"name": "Sprint 1", "status": "closed"},
		{"name": "Sprint 2", "status": "active"},
		{"name": "Sprint 3", "status": "planned"}
	]}`)

	ds, err := LoadDataset("search_sprints", path)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if len(ds.records) != 3 {
		t.Errorf("expected 3 records, got %d", len(ds.records))
	}
}

func TestLoadDataset_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadDataset("x", filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadDataset_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeFixtureJSON(t, "bad.json", `{not json`)
	if _, err := LoadDataset("x", path); err == nil {
		t.Error("expected error for malformed JSON, got nil")
	}
}

func TestDataset_Fields_SortedUnion(t *testing.T) {
	t.Parallel()

	ds := NewDataset("x", []Record{
		{"b": 1, "a": 2},
		{"c": 3, "a": 4},
	})

	fields := ds.Fields()
	want := []string{"a", "b", "c"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d: %v", len(want), len(fields), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q; want %q", i, fields[i], want[i])
		}
	}
}

func TestRegisterBuiltins_AllSevenRegistered(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, b := range builtins {
		if err := os.WriteFile(filepath.Join(dir, b.file), []byte(`[{"name":"x"}]`), 0o644); err != nil {
			t.Fatalf("write %s: %v", b.file, err)
		}
	}

	r := NewRegistry()
	if err := RegisterBuiltins(r, dir); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}

	specs := r.Specs()
	if len(specs) != 7 {
		t.Fatalf("expected 7 tools, got %d", len(specs))
	}
	for _, name := range []string{
		"search_employees", "search_jira_tickets", "search_deployments",
		"search_projects", "search_sprints", "search_meetings", "search_services",
	} {
		if !r.Has(name) {
			t.Errorf("expected tool %q registered", name)
		}
	}
}

func TestRegisterBuiltins_MissingDataset_Fails(t *testing.T) {
	t.Parallel()

	if err := RegisterBuiltins(NewRegistry(), t.TempDir()); err == nil {
		t.Error("expected error when dataset files are missing, got nil")
	}
}
