// Package fields holds the extracted field data for a single document.
//
// A Set distinguishes between a key that is absent and a key that is present
// with an empty value. Several normalization and merge rules depend on that
// distinction, so values are modeled as a small variant type instead of plain
// strings.
package fields

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is the state of a single extracted field: missing, or present with text.
type Value struct {
	text    string
	present bool
}

// String wraps text in a present Value.
func String(text string) Value {
	return Value{text: text, present: true}
}

// Missing returns the absent Value.
func Missing() Value {
	return Value{}
}

// Present reports whether the value exists at all, even as an empty string.
func (v Value) Present() bool {
	return v.present
}

// Blank reports whether the value is missing or contains only whitespace.
func (v Value) Blank() bool {
	return !v.present || strings.TrimSpace(v.text) == ""
}

// Text returns the raw text, or "" for a missing value.
func (v Value) Text() string {
	return v.text
}

// Set is a mutable mapping from canonical-or-raw field keys to values.
// It is the editable state of a document request: created at ingestion,
// enriched by normalization, and overwritten one key at a time by corrections.
type Set struct {
	values map[string]Value
}

// New returns an empty Set.
func New() *Set {
	return &Set{values: make(map[string]Value)}
}

// FromMap builds a Set from a plain string map. Every entry is present.
func FromMap(m map[string]string) *Set {
	s := New()
	for k, v := range m {
		s.values[k] = String(v)
	}
	return s
}

// FromAny builds a Set from a loosely typed JSON object, coercing every value
// to text. Null values are treated as absent. String slices are joined with
// newlines, which keeps multi-line note fields intact.
func FromAny(m map[string]any) *Set {
	s := New()
	for k, v := range m {
		if text, ok := coerce(v); ok {
			s.values[k] = String(text)
		}
	}
	return s
}

func coerce(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if text, ok := coerce(item); ok {
				parts = append(parts, text)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "\n"), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// Get returns the text for key, or "" when the key is missing.
func (s *Set) Get(key string) string {
	return s.values[key].Text()
}

// Lookup returns the Value for key.
func (s *Set) Lookup(key string) Value {
	return s.values[key]
}

// Has reports whether key holds a non-blank value.
func (s *Set) Has(key string) bool {
	return !s.values[key].Blank()
}

// Set stores text under key, marking it present.
func (s *Set) Set(key, text string) {
	s.values[key] = String(text)
}

// Delete removes key entirely.
func (s *Set) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of present keys.
func (s *Set) Len() int {
	return len(s.values)
}

// Keys returns all present keys in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := New()
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

// Merge copies entries from other into s. A blank incoming value never
// overwrites a non-blank one already present.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for k, v := range other.values {
		if v.Blank() && s.Has(k) {
			continue
		}
		s.values[k] = v
	}
}

// Map returns the present entries as a plain string map.
func (s *Set) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v.Text()
	}
	return out
}

// Equal reports whether both sets hold exactly the same keys and texts.
func (s *Set) Equal(other *Set) bool {
	if other == nil || len(s.values) != len(other.values) {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || ov.text != v.text {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the Set as a flat JSON object.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON decodes a flat JSON object, coercing values to text.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *FromAny(raw)
	return nil
}
