package source

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-confscope/layering"
)

// YAMLParser parses YAML documents through the yaml.v3 node API so mapping
// keys keep their document order. Merge keys (<<) are applied as fallbacks
// below the explicit keys of the mapping.
type YAMLParser struct{}

// Parse implements Parser.
func (YAMLParser) Parse(path string, data []byte) (*layering.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return layering.NewTree(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return layering.NewTree(), nil
	}
	if resolveAlias(root).Kind != yaml.MappingNode {
		return nil, &ParseError{Path: path, Line: root.Line, Column: root.Column, Err: ErrNotMapping}
	}
	tree, err := yamlMapping(resolveAlias(root))
	if err != nil {
		return nil, &ParseError{Path: path, Line: root.Line, Column: root.Column, Err: err}
	}
	return tree, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func yamlMapping(node *yaml.Node) (*layering.Tree, error) {
	builder := layering.NewBuilder()
	var merges []*layering.Tree
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Tag == "!!merge" {
			bases, err := yamlMergeSources(valueNode)
			if err != nil {
				return nil, err
			}
			merges = append(merges, bases...)
			continue
		}
		value, err := yamlValue(valueNode)
		if err != nil {
			return nil, err
		}
		builder.Set(keyNode.Value, value)
	}
	tree := builder.Build()
	for _, base := range merges {
		tree = layering.WithFallback(tree, base)
	}
	return tree, nil
}

func yamlMergeSources(node *yaml.Node) ([]*layering.Tree, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.MappingNode:
		tree, err := yamlMapping(node)
		if err != nil {
			return nil, err
		}
		return []*layering.Tree{tree}, nil
	case yaml.SequenceNode:
		out := make([]*layering.Tree, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge key expects mappings", item.Line)
			}
			tree, err := yamlMapping(item)
			if err != nil {
				return nil, err
			}
			out = append(out, tree)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: merge key expects a mapping", node.Line)
	}
}

func yamlValue(node *yaml.Node) (any, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.MappingNode:
		return yamlMapping(node)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
	}
}
