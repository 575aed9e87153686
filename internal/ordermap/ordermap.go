// Package ordermap implements an insertion-ordered string-keyed map. Status
// metadata, CSS custom properties, and group children all need to round-trip
// through JSON in the order their keys were first set rather than Go's
// alphabetic map order, and none of the retrieved example repos carry a
// general-purpose ordered-map dependency, so this is a small generic stdlib
// type shared by internal/status and internal/cssgen.
package ordermap

import "github.com/goccy/go-json"

// Map is a string-keyed map that remembers insertion order. The zero value
// is not usable; construct with New.
type Map[V any] struct {
	keys []string
	vals map[string]V
}

// New creates an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{vals: make(map[string]V)}
}

// Set inserts or updates key, appending it to the key order the first time
// it is seen.
func (m *Map[V]) Set(key string, v V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get looks up key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// GetOrInsert returns the existing value for key, or inserts and returns the
// result of def if absent.
func (m *Map[V]) GetOrInsert(key string, def func() V) V {
	if v, ok := m.vals[key]; ok {
		return v
	}
	v := def()
	m.Set(key, v)
	return v
}

// Delete removes key, if present.
func (m *Map[V]) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Clear empties the map.
func (m *Map[V]) Clear() {
	m.keys = nil
	m.vals = make(map[string]V)
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len reports the number of entries.
func (m *Map[V]) Len() int {
	return len(m.keys)
}

// Range calls fn for every entry in insertion order, stopping early if fn
// returns false.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns an independent copy preserving key order.
func (m *Map[V]) Clone() *Map[V] {
	c := &Map[V]{
		keys: append([]string(nil), m.keys...),
		vals: make(map[string]V, len(m.vals)),
	}
	for k, v := range m.vals {
		c.vals[k] = v
	}
	return c
}

// MarshalJSON renders the map as a JSON object with keys in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '{')
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON restores entries from a JSON object. Maps are only ever
// decoded from output this package itself produced (there is no config or
// wire format that feeds a Map back in), so exact source key order is not
// reconstructed; entries land in whatever order encoding/json's map decode
// step yields in m.vals, with insertion order following that iteration.
func (m *Map[V]) UnmarshalJSON(data []byte) error {
	raw := map[string]V{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.keys = nil
	m.vals = make(map[string]V, len(raw))
	for k, v := range raw {
		m.Set(k, v)
	}
	return nil
}
