package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromMap converts a decoded JSON/YAML object into a SignalSet.
// Strings become single answers, lists become multi answers, nil becomes
// an unanswered single. Any other element type is rejected.
func FromMap(m map[string]any) (SignalSet, error) {
	vals := make(map[string]Value, len(m))
	for k, raw := range m {
		switch v := raw.(type) {
		case nil:
			vals[k] = One("")
		case string:
			vals[k] = One(v)
		case []string:
			vals[k] = Many(v...)
		case []any:
			items := make([]string, 0, len(v))
			for i, it := range v {
				s, ok := it.(string)
				if !ok {
					return SignalSet{}, fmt.Errorf("signal %q item %d: want string, got %T", k, i, it)
				}
				items = append(items, s)
			}
			vals[k] = Many(items...)
		default:
			return SignalSet{}, fmt.Errorf("signal %q: want string or list, got %T", k, raw)
		}
	}
	return New(vals), nil
}

// ToMap returns the raw answers as plain strings and string slices.
func (s SignalSet) ToMap() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if v.multi {
			items := make([]string, len(v.items))
			copy(items, v.items)
			out[k] = items
		} else {
			out[k] = v.text
		}
	}
	return out
}

// MarshalJSON encodes the set as an object of strings and string arrays.
func (s SignalSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToMap())
}

// UnmarshalJSON decodes an object of strings and string arrays.
func (s *SignalSet) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode signals: %w", err)
	}
	set, err := FromMap(m)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// MarshalYAML encodes the set as a mapping of strings and sequences.
func (s SignalSet) MarshalYAML() (any, error) {
	return s.ToMap(), nil
}

// UnmarshalYAML decodes a mapping of scalars and scalar sequences.
func (s *SignalSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("decode signals: line %d: want mapping", node.Line)
	}
	vals := make(map[string]Value, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				vals[key] = One("")
			} else {
				vals[key] = One(val.Value)
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(val.Content))
			for _, it := range val.Content {
				if it.Kind != yaml.ScalarNode {
					return fmt.Errorf("decode signals: %q line %d: want scalar item", key, it.Line)
				}
				items = append(items, it.Value)
			}
			vals[key] = Many(items...)
		default:
			return fmt.Errorf("decode signals: %q line %d: want scalar or sequence", key, val.Line)
		}
	}
	*s = New(vals)
	return nil
}

// LoadFile reads a SignalSet from a .json, .yaml or .yml file.
func LoadFile(path string) (SignalSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SignalSet{}, fmt.Errorf("read signals: %w", err)
	}
	var s SignalSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return SignalSet{}, fmt.Errorf("parse signals %s: %w", path, err)
	}
	return s, nil
}
