// Package redact masks sensitive values in structured log payloads.
//
// A fixed deny-list of field-name substrings is applied recursively through
// nested maps and slices before any log write; matching values are replaced
// wholesale with the redaction marker. Matching is on key names, not values:
// the logging path must never depend on recognizing secret-shaped strings.
package redact

import "strings"

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

// denyList holds lower-case substrings of field names whose values must not
// be logged.
var denyList = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"apikey",
	"api_key",
	"cookie",
	"credential",
	"bearer",
}

// Sensitive reports whether a field name matches the deny-list.
func Sensitive(key string) bool {
	k := strings.ToLower(key)
	for _, deny := range denyList {
		if strings.Contains(k, deny) {
			return true
		}
	}
	return false
}

// Map returns a deep copy of m with every sensitive value replaced by the
// marker. The input is never mutated.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if Sensitive(k) {
			out[k] = Marker
			continue
		}
		out[k] = Value(v)
	}
	return out
}

// Value recursively redacts nested maps and slices; scalars pass through.
func Value(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Map(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Value(item)
		}
		return out
	default:
		return v
	}
}
