package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-confscope"
	"github.com/goliatone/go-confscope/layering"
)

type printer func(format string, args ...any)

func render(w io.Writer, format string, value any, text func(printer)) error {
	switch strings.ToLower(format) {
	case "", "text":
		var err error
		text(func(f string, args ...any) {
			if err == nil {
				_, err = fmt.Fprintf(w, f, args...)
			}
		})
		return err
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderTree keeps the tree's key order in json and yaml output.
func renderTree(w io.Writer, format string, tree *layering.Tree) error {
	var value any = tree
	if strings.EqualFold(format, "yaml") {
		value = treeNode(tree)
	}
	return render(w, format, value, func(p printer) {
		flat := tree.Flatten()
		paths := make([]string, 0, len(flat))
		for path := range flat {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			p("%s = %v\n", path, flat[path])
		}
	})
}

func renderTrace(w io.Writer, format string, trace confscope.Trace) error {
	return render(w, format, trace, func(p printer) {
		if trace.Found {
			p("%s = %v\n", trace.Path, trace.Value)
		} else {
			p("%s is not set\n", trace.Path)
		}
		for _, layer := range trace.Layers {
			switch {
			case !layer.Present:
				p("  %-8s %-12s absent\n", layer.Level, layer.Key)
			case layer.Found:
				p("  %-8s %-12s %v (%s)\n", layer.Level, layer.Key, layer.Value, layer.Source)
			default:
				p("  %-8s %-12s unset (%s)\n", layer.Level, layer.Key, layer.Source)
			}
		}
	})
}

func treeNode(tree *layering.Tree) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range tree.Keys() {
		var child *yaml.Node
		if sub, ok := tree.Subtree(key); ok {
			child = treeNode(sub)
		} else {
			value, _ := tree.Get(key)
			child = &yaml.Node{}
			if err := child.Encode(value); err != nil {
				child = &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(value)}
			}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			child)
	}
	return node
}
