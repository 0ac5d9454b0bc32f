// Package intent classifies a user query into one routing label.
// Classification drives the pipeline's single dispatch decision, so the
// label set is closed: anything the model returns outside it maps to the
// defensive default.
package intent

import "strings"

// Intent is the categorical label describing which answer strategy a
// query requires.
type Intent string

const (
	Conversation  Intent = "conversation"
	Documentation Intent = "documentation"
	DataQuery     Intent = "data_query"
	WebSearch     Intent = "web_search"
)

// Default is returned whenever classification cannot produce a trusted
// label: out-of-enum output, empty responses, upstream errors. Favoring
// structured lookup over unguarded web access or ungrounded RAG is a
// deliberate product decision.
const Default = DataQuery

// Parse maps raw classifier output to an Intent via a strict allow-list.
// Unrecognized or empty input yields Default and ok=false.
func Parse(raw string) (Intent, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, `"'.`)
	switch Intent(label) {
	case Conversation, Documentation, DataQuery, WebSearch:
		return Intent(label), true
	}
	return Default, false
}

// All returns every valid intent label.
func All() []Intent {
	return []Intent{Conversation, Documentation, DataQuery, WebSearch}
}
