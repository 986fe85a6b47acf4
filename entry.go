package confscope

import (
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-confscope/layering"
)

// Entry is the unit stored in a TypeRegistry: one configuration tree plus a
// one-shot merged flag.
//
// The tree is replaced, never mutated, when fallbacks are merged in. The
// first resolution composes the entry exactly once; concurrent resolvers
// wait for it and then observe the composed tree.
type Entry struct {
	source string
	origin *layering.Tree

	tree   atomic.Pointer[layering.Tree]
	merged atomic.Bool
	mu     sync.Mutex
}

// NewEntry wraps tree. source names where the tree came from and is only
// used for diagnostics.
func NewEntry(tree *layering.Tree, source string) *Entry {
	if tree == nil {
		tree = layering.NewTree()
	}
	e := &Entry{
		source: source,
		origin: tree,
	}
	e.tree.Store(tree)
	return e
}

// Tree returns the current tree: the original fragment before the first
// resolution, the composed tree afterwards.
func (e *Entry) Tree() *layering.Tree {
	if e == nil {
		return nil
	}
	return e.tree.Load()
}

// Origin returns the tree the entry was created with.
func (e *Entry) Origin() *layering.Tree {
	if e == nil {
		return nil
	}
	return e.origin
}

// Source returns the fragment path the entry was built from.
func (e *Entry) Source() string {
	if e == nil {
		return ""
	}
	return e.source
}

// IsMerged reports whether fallback composition already ran.
func (e *Entry) IsMerged() bool {
	return e != nil && e.merged.Load()
}

// SetMerged sets the merged flag.
func (e *Entry) SetMerged(merged bool) {
	e.merged.Store(merged)
}

// MergeWithSuper replaces the entry tree with the tree layered over other's
// tree as fallback. The merged flag is left untouched.
func (e *Entry) MergeWithSuper(other *Entry) {
	if other == nil {
		return
	}
	e.tree.Store(layering.WithFallback(e.Tree(), other.Tree()))
}

// composeOnce runs compose and flips the merged flag unless another caller
// already did. It reports whether this call performed the composition.
func (e *Entry) composeOnce(compose func(*Entry)) bool {
	if e.merged.Load() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.merged.Load() {
		return false
	}
	compose(e)
	e.merged.Store(true)
	return true
}
