package tool

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a comparison applied to one record field during tool execution.
type Operator string

const (
	OpEquals       Operator = "equals"
	OpContains     Operator = "contains"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
)

// allowedOperators is the closed set of operators tools accept.
// Anything else (e.g. "between") is rejected at validation time.
var allowedOperators = map[Operator]struct{}{
	OpEquals:       {},
	OpContains:     {},
	OpGreaterThan:  {},
	OpLessThan:     {},
	OpGreaterEqual: {},
	OpLessEqual:    {},
}

// ParseOperator normalizes raw text into an Operator.
// Returns an error for anything outside the allowed set.
func ParseOperator(raw string) (Operator, error) {
	op := Operator(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedOperators[op]; !ok {
		return "", fmt.Errorf("%w: operator %q", ErrInvalidOperator, raw)
	}
	return op, nil
}

// Operators returns the allowed operator names, for tool catalog prompts.
func Operators() []string {
	return []string{
		string(OpEquals), string(OpContains),
		string(OpGreaterThan), string(OpLessThan),
		string(OpGreaterEqual), string(OpLessEqual),
	}
}

// match reports whether a record field value satisfies `field op query`.
//
// Semantics:
//   - equals: case-insensitive string equality (numbers compare numerically)
//   - contains: case-insensitive substring on strings; membership on lists
//   - ordering operators: numeric when both sides parse as numbers,
//     lexicographic otherwise
func match(field any, op Operator, query string) bool {
	switch op {
	case OpEquals:
		if fn, qn, ok := bothNumeric(field, query); ok {
			return fn == qn
		}
		return strings.EqualFold(stringify(field), query)
	case OpContains:
		if list, ok := field.([]any); ok {
			for _, item := range list {
				if strings.EqualFold(stringify(item), query) {
					return true
				}
			}
			return false
		}
		return strings.Contains(strings.ToLower(stringify(field)), strings.ToLower(query))
	case OpGreaterThan:
		return compare(field, query) > 0
	case OpLessThan:
		return compare(field, query) < 0
	case OpGreaterEqual:
		return compare(field, query) >= 0
	case OpLessEqual:
		return compare(field, query) <= 0
	}
	return false
}

// compare orders a field value against a query string: -1, 0, or +1.
// Numeric comparison when both sides are numeric, lexicographic otherwise.
func compare(field any, query string) int {
	if fn, qn, ok := bothNumeric(field, query); ok {
		switch {
		case fn < qn:
			return -1
		case fn > qn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(field), query)
}

// bothNumeric extracts float values from both sides when possible.
func bothNumeric(field any, query string) (float64, float64, bool) {
	qn, err := strconv.ParseFloat(strings.TrimSpace(query), 64)
	if err != nil {
		return 0, 0, false
	}
	switch v := field.(type) {
	case float64:
		return v, qn, true
	case int:
		return float64(v), qn, true
	case string:
		fn, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, 0, false
		}
		return fn, qn, true
	}
	return 0, 0, false
}

// stringify renders a record field for comparison. JSON-decoded numbers are
// float64; trailing ".0" is stripped so "5" equals 5.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
