package layering

import "strings"

// WithFallback composes primary over fallback and returns a new tree. Keys
// present in primary keep primary's value, keys only present in fallback are
// copied from it, and nested trees present on both sides are merged
// recursively. Lists are leaves: whichever side defines one wins it whole.
//
// Primary keys keep their order and fallback-only keys follow in fallback
// order. Neither input is modified.
func WithFallback(primary, fallback *Tree) *Tree {
	if primary.Len() == 0 {
		return fallback.Clone()
	}
	if fallback.Len() == 0 {
		return primary.Clone()
	}

	merged := NewTree()
	for _, key := range primary.keys {
		strong := primary.values[key]
		weak, exists := fallback.values[key]
		if !exists {
			merged.set(key, cloneValue(strong))
			continue
		}
		merged.set(key, mergeValue(strong, weak))
	}
	for _, key := range fallback.keys {
		if _, exists := primary.values[key]; exists {
			continue
		}
		merged.set(key, cloneValue(fallback.values[key]))
	}
	return merged
}

func mergeValue(strong, weak any) any {
	strongTree, strongIsTree := strong.(*Tree)
	weakTree, weakIsTree := weak.(*Tree)
	if strongIsTree && weakIsTree {
		return WithFallback(strongTree, weakTree)
	}
	return cloneValue(strong)
}

// MergeLayers composes trees ordered from strongest to weakest, keeping
// explicit settings from stronger layers while filling any missing data from
// weaker ones.
func MergeLayers(layers ...*Tree) *Tree {
	if len(layers) == 0 {
		return NewTree()
	}

	merged := layers[len(layers)-1].Clone()
	for i := len(layers) - 2; i >= 0; i-- {
		merged = WithFallback(layers[i], merged)
	}
	return merged
}

// SetPath returns a copy of tree with value stored at the dot-separated path,
// creating intermediate trees as needed. An intermediate leaf on the path is
// replaced by a tree.
func SetPath(tree *Tree, path string, value any) *Tree {
	if path == "" {
		return tree.Clone()
	}
	return setPath(tree, strings.Split(path, "."), normalize(value))
}

func setPath(tree *Tree, parts []string, value any) *Tree {
	out := tree.Clone()
	head := parts[0]
	if len(parts) == 1 {
		out.set(head, value)
		return out
	}
	child, _ := out.values[head].(*Tree)
	out.set(head, setPath(child, parts[1:], value))
	return out
}
