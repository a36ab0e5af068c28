package schema

import "sort"

// Attributes is a string keyed map that remembers insertion order.
// Setting an existing key replaces its value but keeps its position.
// The zero value is ready to use.
type Attributes struct {
	keys   []string
	values map[string]any
}

// Set stores a value under key.
func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// SetAll stores every entry of values, in key order.
func (a *Attributes) SetAll(values map[string]any) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		a.Set(key, values[key])
	}
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	value, ok := a.values[key]
	return value, ok
}

// Has reports whether key is present.
func (a *Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Len returns the number of entries.
func (a *Attributes) Len() int {
	return len(a.keys)
}
