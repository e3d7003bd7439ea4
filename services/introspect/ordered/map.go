// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ordered provides an insertion-ordered string-keyed map.
package ordered

import (
	"bytes"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Map is a string-keyed map that remembers insertion order.
//
// Description:
//
//	Set has last-write-wins semantics: writing an existing key replaces its
//	value but keeps the key at the position of its first insertion, so
//	iteration order is the order in which keys were first seen. JSON and
//	YAML encodings preserve that order.
//
// Thread Safety:
//
//	Not safe for concurrent mutation.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{values: make(map[string]V)}
}

// Set stores value under key and reports whether an existing value was replaced.
func (m *Map[V]) Set(key string, value V) bool {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	_, replaced := m.values[key]
	if !replaced {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return replaced
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of keys.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m *Map[V]) Values() []V {
	if m == nil {
		return nil
	}
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// Each calls fn for every entry in key order, stopping at the first error.
func (m *Map[V]) Each(fn func(key string, value V) error) error {
	if m == nil {
		return nil
	}
	for _, k := range m.keys {
		if err := fn(k, m.values[k]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the map as a JSON object in key order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := gojson.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := gojson.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the map as a YAML mapping in key order.
func (m *Map[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m == nil {
		return node, nil
	}
	for _, k := range m.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(m.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}
