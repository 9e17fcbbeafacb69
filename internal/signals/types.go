package signals

import (
	"sort"
	"strings"
)

// #region kind

// Kind describes the answer shape a schema key carries.
type Kind int

const (
	// Single is a single-choice answer; "" means unanswered.
	Single Kind = iota
	// Multi is a multi-choice answer; an empty list means unanswered.
	Multi
	// Text is free text, carried through but never scored.
	Text
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Multi:
		return "multi"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// #endregion kind

// #region schema

// Field is one key of a profile's intake schema.
type Field struct {
	Key  string
	Kind Kind
}

// Schema is the ordered key list a profile reads.
type Schema []Field

// Lookup returns the field for key.
func (s Schema) Lookup(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns the schema keys in declaration order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}

// ChoiceKeys returns the single and multi keys, skipping free text.
func (s Schema) ChoiceKeys() []string {
	var keys []string
	for _, f := range s {
		if f.Kind != Text {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// #endregion schema

// #region value

// Value is one answer. Exactly one of text or items is meaningful,
// selected by multi.
type Value struct {
	text  string
	items []string
	multi bool
}

// One builds a single-choice or free-text value.
func One(text string) Value {
	return Value{text: text}
}

// Many builds a multi-choice value. The items are copied.
func Many(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{items: cp, multi: true}
}

// IsMulti reports whether v is a multi-choice value.
func (v Value) IsMulti() bool { return v.multi }

// Raw returns the unnormalized single answer, or the items joined by ", ".
func (v Value) Raw() string {
	if v.multi {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// RawItems returns a copy of the unnormalized items. A single answer
// yields a one-element list, or nil when unanswered.
func (v Value) RawItems() []string {
	if !v.multi {
		if v.text == "" {
			return nil
		}
		return []string{v.text}
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Empty reports whether the value is unanswered.
func (v Value) Empty() bool {
	if v.multi {
		for _, it := range v.items {
			if normalize(it) != "" {
				return false
			}
		}
		return true
	}
	return normalize(v.text) == ""
}

// #endregion value

// #region signal-set

// SignalSet is the immutable answer mapping for one complaint.
// A missing key reads exactly like an unanswered one.
type SignalSet struct {
	values map[string]Value
}

// New copies vals into a SignalSet.
func New(vals map[string]Value) SignalSet {
	m := make(map[string]Value, len(vals))
	for k, v := range vals {
		if v.multi {
			v = Many(v.items...)
		}
		m[k] = v
	}
	return SignalSet{values: m}
}

// Get returns the value stored under key and whether the key is present.
func (s SignalSet) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present, answered or not.
func (s SignalSet) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Text returns the normalized single answer for key. Multi-choice values
// are joined with a space.
func (s SignalSet) Text(key string) string {
	v, ok := s.values[key]
	if !ok {
		return ""
	}
	if v.multi {
		return strings.Join(s.Items(key), " ")
	}
	return normalize(v.text)
}

// Items returns the normalized, non-empty items for key. A single answer
// yields a one-element list.
func (s SignalSet) Items(key string) []string {
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	if !v.multi {
		if t := normalize(v.text); t != "" {
			return []string{t}
		}
		return nil
	}
	out := make([]string, 0, len(v.items))
	for _, it := range v.items {
		if t := normalize(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Answered reports whether key carries a non-empty answer.
func (s SignalSet) Answered(key string) bool {
	v, ok := s.values[key]
	return ok && !v.Empty()
}

// Keys returns the present keys, sorted.
func (s SignalSet) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present keys.
func (s SignalSet) Len() int { return len(s.values) }

// Conform returns a copy carrying every schema key; absent keys are filled
// with the empty answer of their kind. Keys outside the schema are kept.
func (s SignalSet) Conform(schema Schema) SignalSet {
	m := make(map[string]Value, len(s.values)+len(schema))
	for k, v := range s.values {
		m[k] = v
	}
	for _, f := range schema {
		if _, ok := m[f.Key]; ok {
			continue
		}
		if f.Kind == Multi {
			m[f.Key] = Many()
		} else {
			m[f.Key] = One("")
		}
	}
	return New(m)
}

// #endregion signal-set

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
