// Package tool implements the structured-data tool registry.
// Each registered tool wraps one read-only dataset and answers
// key/value/operator lookups against its records.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotRegistered     = errors.New("tool not registered")
	ErrInvalidOperator       = errors.New("invalid operator")
	ErrMissingParameter      = errors.New("missing required parameter")
)

// Record is one row of a dataset, as decoded from JSON.
type Record map[string]any

// Executor answers a single key/value/operator query over one dataset.
type Executor interface {
	Execute(ctx context.Context, key, value string, op Operator) ([]Record, error)
}

// Spec describes one registered tool for catalog prompts and validation.
// The parameter schema is fixed for every tool: key, value, operator.
type Spec struct {
	Name        string
	Description string
	Fields      []string // queryable record fields, advisory for the LLM
}

// Registry holds the process-wide tool set. Built once at startup,
// read-only afterwards, safe for concurrent reads.
type Registry struct {
	specs     map[string]Spec
	executors map[string]Executor
	order     []string // registration order, for stable catalog output
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:     make(map[string]Spec),
		executors: make(map[string]Executor),
	}
}

// Register adds a tool under spec.Name. Names are unique; registering the
// same name twice is an error.
func (r *Registry) Register(spec Spec, executor Executor) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" || executor == nil {
		return fmt.Errorf("%w: empty name or nil executor", ErrToolNotRegistered)
	}
	if _, exists := r.executors[name]; exists {
		return fmt.Errorf("%w: %q", ErrToolAlreadyRegistered, name)
	}
	spec.Name = name
	r.specs[name] = spec
	r.executors[name] = executor
	r.order = append(r.order, name)
	return nil
}

// Get returns the executor registered under name.
func (r *Registry) Get(name string) (Executor, error) {
	executor, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotRegistered, name)
	}
	return executor, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.executors[name]
	return ok
}

// Specs returns all registered tool specs in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}
