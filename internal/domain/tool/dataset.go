package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Dataset is an in-memory, read-only collection of records backing one tool.
// Execute filters records where `record[key] op value` holds. Records missing
// the key are skipped, not errors.
type Dataset struct {
	name    string
	records []Record
}

// NewDataset wraps a record slice as an executable dataset.
func NewDataset(name string, records []Record) *Dataset {
	return &Dataset{name: name, records: records}
}

// LoadDataset reads records from a JSON file. Accepts either a top-level
// array of objects or an object with a single array field (both shapes
// occur in the shipped data files).
func LoadDataset(name, path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: read %q: %w", name, path, err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return NewDataset(name, records), nil
	}

	var wrapper map[string][]Record
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("dataset %s: parse %q: %w", name, path, err)
	}
	for _, list := range wrapper {
		records = append(records, list...)
	}
	return NewDataset(name, records), nil
}

// Execute returns all records where the key field satisfies the operator
// against value. A pure read — safe for concurrent callers.
func (d *Dataset) Execute(_ context.Context, key, value string, op Operator) ([]Record, error) {
	if _, ok := allowedOperators[op]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, op)
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: key", ErrMissingParameter)
	}

	out := make([]Record, 0)
	for _, rec := range d.records {
		field, present := rec[key]
		if !present {
			continue
		}
		if match(field, op, value) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Fields returns the sorted union of field names seen across records, used
// to describe the dataset in tool catalog prompts.
func (d *Dataset) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range d.records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
