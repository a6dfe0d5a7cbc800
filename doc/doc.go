// Package doc holds loosely-typed document values decoded from YAML.
//
// Mappings are decoded into *Map, which keeps keys in document order. Lists
// become []interface{} and scalars keep the types produced by the YAML
// decoder (string, int, float64, bool or nil).
package doc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Map is an insertion-ordered mapping from string keys to document values.
type Map struct {
	keys   []string
	values map[string]interface{}
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]interface{}{}}
}

// MapOf builds a Map from alternating key, value arguments.
func MapOf(kv ...interface{}) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return m
}

// Set stores `value` under `key`. Overwriting keeps the key's original position.
func (m *Map) Set(key string, value interface{}) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under `key`.
func (m *Map) Get(key string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether `key` is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Lookup returns the value of the first of `keys` that is present.
func (m *Map) Lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// First returns the value of the first of `keys` that is present and not
// empty. Empty strings, empty maps, empty lists and nil are skipped.
func (m *Map) First(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m.Get(k); ok && !IsEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

// String returns the scalar under the first present key rendered as a string.
func (m *Map) String(keys ...string) string {
	v, ok := m.Lookup(keys...)
	if !ok {
		return ""
	}
	return Scalar(v)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls `f` for each entry in insertion order.
func (m *Map) Range(f func(key string, value interface{})) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		f(k, m.values[k])
	}
}

// Update copies every entry of `other` into `m`, later writes winning.
func (m *Map) Update(other *Map) {
	other.Range(func(k string, v interface{}) {
		m.Set(k, v)
	})
}

// Clone returns a shallow copy.
func (m *Map) Clone() *Map {
	c := NewMap()
	c.Update(m)
	return c
}

// MarshalYAML renders the map as an ordered YAML mapping.
func (m *Map) MarshalYAML() (interface{}, error) {
	ms := make(yaml.MapSlice, 0, m.Len())
	m.Range(func(k string, v interface{}) {
		ms = append(ms, yaml.MapItem{Key: k, Value: v})
	})
	return ms, nil
}

// Decode parses YAML `data` into document values. Mappings keep their key
// order at every nesting level.
func Decode(data []byte) (interface{}, error) {
	var probe interface{}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.(type) {
	case map[interface{}]interface{}:
		var ordered yaml.MapSlice
		if err := yaml.Unmarshal(data, &ordered); err == nil {
			return normalize(ordered), nil
		}
	case []interface{}:
		var ordered []yaml.MapSlice
		if err := yaml.Unmarshal(data, &ordered); err == nil {
			items := make([]interface{}, 0, len(ordered))
			for _, item := range ordered {
				if item == nil {
					items = append(items, nil)
					continue
				}
				items = append(items, normalize(item))
			}
			return items, nil
		}
	}
	return normalize(probe), nil
}

func normalize(v interface{}) interface{} {
	switch value := v.(type) {
	case yaml.MapSlice:
		m := NewMap()
		for _, item := range value {
			m.Set(keyString(item.Key), normalize(item.Value))
		}
		return m
	case map[interface{}]interface{}:
		keys := make([]string, 0, len(value))
		byKey := make(map[string]interface{}, len(value))
		for k, item := range value {
			ks := keyString(k)
			keys = append(keys, ks)
			byKey[ks] = item
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, normalize(byKey[k]))
		}
		return m
	case []interface{}:
		items := make([]interface{}, len(value))
		for i, item := range value {
			items[i] = normalize(item)
		}
		return items
	default:
		return v
	}
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

// AsMap returns `v` as a *Map if it is a mapping.
func AsMap(v interface{}) (*Map, bool) {
	m, ok := v.(*Map)
	return m, ok && m != nil
}

// AsList returns `v` as a list if it is one.
func AsList(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

// IsEmpty reports whether `v` is nil, an empty string, an empty mapping or an empty list.
func IsEmpty(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case *Map:
		return value.Len() == 0
	case []interface{}:
		return len(value) == 0
	}
	return false
}

// Scalar renders a scalar document value as a string. nil renders as "".
func Scalar(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

// Strings renders a list (or a single scalar) as a list of strings.
func Strings(v interface{}) []string {
	switch value := v.(type) {
	case nil:
		return []string{}
	case []interface{}:
		result := make([]string, 0, len(value))
		for _, item := range value {
			result = append(result, Scalar(item))
		}
		return result
	case string:
		if value == "" {
			return []string{}
		}
		return []string{value}
	default:
		return []string{Scalar(value)}
	}
}

// Bool interprets a document value as a flag. Strings "true", "yes", "1"
// and "on" are true, case-insensitively.
func Bool(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case float64:
		return value != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "1", "on":
			return true
		}
	}
	return false
}

// Int interprets a document value as an integer.
func Int(v interface{}) (int, bool) {
	switch value := v.(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case uint64:
		return int(value), true
	case float64:
		return int(value), true
	case bool:
		if value {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
