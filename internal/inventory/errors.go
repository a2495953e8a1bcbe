package inventory

import (
	"sort"
	"strings"
)

// ValidationError describes why a request was refused. Fields holds
// per-field messages keyed by the request field name; NonField holds a
// message about the request as a whole.
type ValidationError struct {
	Fields   map[string]string
	NonField string

	cause error
}

// Add records a message for a field. The first message for a field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no message has been recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0 && e.NonField == ""
}

func (e *ValidationError) Error() string {
	if e.NonField != "" {
		return e.NonField
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}
