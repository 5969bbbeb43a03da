// Package sequencedmap provides a map implementation that maintains the order of keys as they are added.
package sequencedmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
)

type element[K comparable, V any] struct {
	key   K
	value V
}

// Map is a map implementation that maintains the order of keys as they are added.
// The zero value is not usable, create maps with New.
type Map[K comparable, V any] struct {
	m map[K]*element[K, V]
	l []*element[K, V]
}

// New creates a new empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		m: map[K]*element[K, V]{},
	}
}

// Len returns the number of elements in the map. nil safe.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.l)
}

// Set sets the value for the specified key.
// Setting an existing key replaces its value without changing its position.
func (m *Map[K, V]) Set(key K, value V) {
	if e, ok := m.m[key]; ok {
		e.value = value
		return
	}

	e := &element[K, V]{key: key, value: value}
	m.m[key] = e
	m.l = append(m.l, e)
}

// Get returns the value for the specified key and a boolean indicating whether the key was found.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}

	e, ok := m.m[key]
	if !ok {
		return zero, false
	}

	return e.value, true
}

// All returns an iterator that iterates over all elements in the map, in the order they were added.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}

		for _, e := range m.l {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns an iterator that iterates over all keys in the map, in the order they were added.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// MarshalJSON returns the JSON representation of the map, keys in insertion order.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer

	buf.WriteString("{")

	for i, e := range m.l {
		kb, err := json.Marshal(fmt.Sprintf("%v", e.key))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteString(":")

		vb, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)

		if i < len(m.l)-1 {
			buf.WriteString(",")
		}
	}

	buf.WriteString("}")

	return buf.Bytes(), nil
}
