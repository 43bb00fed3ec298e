// Package normalization maps loosely written configuration strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Enum resolves raw strings to values of T. Matching ignores case and
// surrounding whitespace; the empty string resolves to the default.
type Enum[T ~string] struct {
	name   string
	def    T
	values map[string]T
	keys   []string
}

// NewEnum registers the given values under their own (lower-cased) spelling.
func NewEnum[T ~string](name string, def T, values ...T) *Enum[T] {
	e := &Enum[T]{name: name, def: def, values: make(map[string]T, len(values))}
	for _, v := range values {
		e.add(string(v), v)
	}
	return e
}

// WithAlias lets an alternative spelling resolve to v.
func (e *Enum[T]) WithAlias(alias string, v T) *Enum[T] {
	e.add(alias, v)
	return e
}

func (e *Enum[T]) add(key string, v T) {
	k := clean(key)
	if _, exists := e.values[k]; !exists {
		e.keys = append(e.keys, k)
		sort.Strings(e.keys)
	}
	e.values[k] = v
}

// Parse resolves raw, failing on unknown values.
func (e *Enum[T]) Parse(raw string) (T, error) {
	k := clean(raw)
	if k == "" {
		return e.def, nil
	}
	if v, ok := e.values[k]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.keys, ", "))
}

// Normalize resolves raw, falling back to the default for unknown values.
func (e *Enum[T]) Normalize(raw string) T {
	v, err := e.Parse(raw)
	if err != nil {
		return e.def
	}
	return v
}

// Valid reports whether raw resolves without error.
func (e *Enum[T]) Valid(raw string) bool {
	_, err := e.Parse(raw)
	return err == nil
}

// Keys returns the accepted spellings in sorted order.
func (e *Enum[T]) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
