package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-confscope/layering"
)

// Memory is a mutable in-memory Source keyed by fragment path. Fragments are
// served in lexical path order, matching Dir.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*layering.Tree
}

// NewMemory returns an empty Memory source.
func NewMemory() *Memory {
	return &Memory{records: map[string]*layering.Tree{}}
}

// Put stores a copy of tree under path, replacing any previous fragment.
func (m *Memory) Put(path string, tree *layering.Tree) error {
	if path == "" {
		return fmt.Errorf("source: memory fragment path is required")
	}
	m.mu.Lock()
	m.records[path] = tree.Clone()
	m.mu.Unlock()
	return nil
}

// PutMap stores data under path.
func (m *Memory) PutMap(path string, data map[string]any) error {
	return m.Put(path, layering.FromMap(data))
}

// Delete removes the fragment at path and reports whether it existed.
func (m *Memory) Delete(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[path]
	delete(m.records, path)
	return ok
}

// Len returns the number of stored fragments.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Fragments implements Source. Each call returns fresh copies.
func (m *Memory) Fragments(ctx context.Context) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.records))
	for path := range m.records {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]Fragment, len(paths))
	for i, path := range paths {
		out[i] = Fragment{Path: path, Tree: m.records[path].Clone()}
	}
	return out, nil
}
