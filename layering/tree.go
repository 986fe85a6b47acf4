// Package layering provides the ordered configuration tree used by confscope
// and the fallback merge that composes trees from strongest to weakest.
package layering

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Tree is an insertion-ordered key/value tree. Values are leaves (strings,
// numbers, booleans, times, nil), lists ([]any, always treated as a single
// leaf) or nested *Tree values.
//
// A Tree is immutable once built: there are no exported mutators and every
// accessor that could leak internal state returns a copy. A nil *Tree behaves
// like an empty tree.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{values: map[string]any{}}
}

// FromMap converts a plain map into a Tree. Go maps carry no ordering so keys
// are sorted lexically at every level.
func FromMap(data map[string]any) *Tree {
	tree := NewTree()
	if len(data) == 0 {
		return tree
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		tree.set(key, normalize(data[key]))
	}
	return tree
}

// Builder assembles a Tree key by key, preserving the order of Set calls.
// Setting a key twice replaces the value but keeps the original position.
type Builder struct {
	tree *Tree
}

// NewBuilder returns a Builder for a new tree.
func NewBuilder() *Builder {
	return &Builder{tree: NewTree()}
}

// Set stores value under key. Maps are converted with FromMap, trees and
// lists are deep copied.
func (b *Builder) Set(key string, value any) *Builder {
	b.tree.set(key, normalize(value))
	return b
}

// Build returns the assembled tree. The builder must not be reused.
func (b *Builder) Build() *Tree {
	tree := b.tree
	b.tree = NewTree()
	return tree
}

func (t *Tree) set(key string, value any) {
	if t.values == nil {
		t.values = map[string]any{}
	}
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Len returns the number of top-level keys.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the top-level keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil || len(t.keys) == 0 {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// RootKey returns the first top-level key. Fragments are grouped by type
// using this key.
func (t *Tree) RootKey() (string, bool) {
	if t == nil || len(t.keys) == 0 {
		return "", false
	}
	return t.keys[0], true
}

// Get returns the value stored directly under key.
func (t *Tree) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	value, ok := t.values[key]
	if !ok {
		return nil, false
	}
	return exportValue(value), true
}

// Subtree returns the nested tree stored under key.
func (t *Tree) Subtree(key string) (*Tree, bool) {
	if t == nil {
		return nil, false
	}
	sub, ok := t.values[key].(*Tree)
	return sub, ok
}

// Lookup resolves a dot-separated path such as "service.port".
func (t *Tree) Lookup(path string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	current := t
	for i, part := range parts {
		value, ok := current.values[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return exportValue(value), true
		}
		next, ok := value.(*Tree)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// LookupString resolves path and returns it when the value is a string.
func (t *Tree) LookupString(path string) (string, bool) {
	value, ok := t.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// LookupStrings resolves path and returns it when the value is a list made
// only of strings.
func (t *Tree) LookupStrings(path string) ([]string, bool) {
	value, ok := t.Lookup(path)
	if !ok {
		return nil, false
	}
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Clone returns a deep copy. Cloning a nil tree yields an empty tree.
func (t *Tree) Clone() *Tree {
	clone := NewTree()
	if t == nil {
		return clone
	}
	for _, key := range t.keys {
		clone.set(key, cloneValue(t.values[key]))
	}
	return clone
}

// ToMap converts the tree into nested map[string]any values.
func (t *Tree) ToMap() map[string]any {
	out := make(map[string]any, t.Len())
	if t == nil {
		return out
	}
	for _, key := range t.keys {
		out[key] = exportValue(t.values[key])
	}
	return out
}

// Flatten returns every leaf keyed by its dot-separated path.
func (t *Tree) Flatten() map[string]any {
	result := make(map[string]any)
	flattenInto(t, "", result)
	return result
}

func flattenInto(t *Tree, prefix string, result map[string]any) {
	if t == nil {
		return
	}
	for _, key := range t.keys {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := t.values[key].(*Tree); ok {
			flattenInto(nested, fullKey, result)
			continue
		}
		result[fullKey] = exportValue(t.values[key])
	}
}

// Equal reports whether both trees hold the same content, ignoring key order.
func (t *Tree) Equal(other *Tree) bool {
	return reflect.DeepEqual(t.ToMap(), other.ToMap())
}

// MarshalJSON writes keys in insertion order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tree) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	if t != nil {
		for i, key := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := writeJSONValue(buf, t.values[key]); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *Tree:
		return v.writeJSON(buf)
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

func normalize(value any) any {
	switch v := value.(type) {
	case *Tree:
		return v.Clone()
	case map[string]any:
		return FromMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return value
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case *Tree:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

// exportValue converts internal values into plain Go values detached from
// the tree.
func exportValue(value any) any {
	switch v := value.(type) {
	case *Tree:
		return v.ToMap()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = exportValue(item)
		}
		return out
	default:
		return value
	}
}
