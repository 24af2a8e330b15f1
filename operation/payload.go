package operation

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Payload is the inbound request document. Lookups use dot separated paths
// into nested objects and every lookup is recorded, so tests can check that
// the fields an operation requires are the fields its builder consumes.
type Payload struct {
	values  map[string]any
	touched map[string]struct{}
}

// NewPayload wraps values. A nil map is treated as empty.
func NewPayload(values map[string]any) *Payload {
	if values == nil {
		values = map[string]any{}
	}

	return &Payload{values: values, touched: map[string]struct{}{}}
}

func (p *Payload) peek(path string) (any, bool) {
	var current any = p.values

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Lookup returns the value at path.
func (p *Payload) Lookup(path string) (any, bool) {
	p.touched[path] = struct{}{}
	return p.peek(path)
}

// String returns the value at path as a trimmed string. Numbers and booleans
// are formatted; anything else is "".
func (p *Payload) String(path string) string {
	v, _ := p.Lookup(path)
	return stringValue(v)
}

// Peek is String without counting as consuming the field.
func (p *Payload) Peek(path string) string {
	v, _ := p.peek(path)
	return stringValue(v)
}

// Object returns the object at path or nil.
func (p *Payload) Object(path string) map[string]any {
	v, _ := p.Lookup(path)
	m, _ := v.(map[string]any)
	return m
}

// Strings returns the value at path as a list of strings. A comma separated
// string is split.
func (p *Payload) Strings(path string) []string {
	v, _ := p.Lookup(path)

	var out []string

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, item := range strings.Split(t, ",") {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}

// Present reports whether path holds a non-empty value: a non-blank string,
// a non-empty list, an object, a number or a boolean. It does not count as
// consuming the field.
func (p *Payload) Present(path string) bool {
	v, ok := p.peek(path)
	if !ok || v == nil {
		return false
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	}

	return true
}

// Touched returns the sorted paths read through Lookup.
func (p *Payload) Touched() []string {
	out := make([]string, 0, len(p.touched))
	for k := range p.touched {
		out = append(out, k)
	}

	sort.Strings(out)
	return out
}

// Consumed reports whether path, or an object containing it, was read.
func (p *Payload) Consumed(path string) bool {
	for k := range p.touched {
		if k == path || strings.HasPrefix(path, k+".") {
			return true
		}
	}

	return false
}

// MarshalJSON encodes the underlying document.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.values)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}

	return ""
}
