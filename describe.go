package confscope

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-confscope/layering"
)

// FieldDescriptor describes a leaf path of a tree and its inferred type.
type FieldDescriptor struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
}

// Describe lists every leaf of tree sorted by path. Lists are leaves typed
// by their first element; empty subtrees are reported as map[string]any.
func Describe(tree *layering.Tree) []FieldDescriptor {
	fields := []FieldDescriptor{}
	describeInto(tree, "", &fields)
	slices.SortFunc(fields, func(a, b FieldDescriptor) int {
		return strings.Compare(a.Path, b.Path)
	})
	return fields
}

func describeInto(tree *layering.Tree, prefix string, fields *[]FieldDescriptor) {
	for _, key := range tree.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := tree.Subtree(key); ok {
			if sub.Len() == 0 {
				*fields = append(*fields, FieldDescriptor{Path: path, Type: "map[string]any"})
				continue
			}
			describeInto(sub, path, fields)
			continue
		}
		value, _ := tree.Get(key)
		*fields = append(*fields, FieldDescriptor{Path: path, Type: leafType(value)})
	}
}

func leafType(value any) string {
	switch typed := value.(type) {
	case nil:
		return "nil"
	case []any:
		if len(typed) == 0 {
			return "[]any"
		}
		return "[]" + leafType(typed[0])
	default:
		return fmt.Sprintf("%T", typed)
	}
}
