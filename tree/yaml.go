package tree

import (
	"encoding/json"
	"strconv"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML document preserving mapping key order.
// The document root must be a mapping; an empty document yields an empty map.
func ParseYAML(data []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, xerrors.Errorf("parsing YAML: %w", err)
	}

	// yaml.Unmarshal wraps the document in a DocumentNode.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMap(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, xerrors.Errorf("parsing YAML: root must be a mapping, got kind %d", root.Kind)
	}

	n, err := fromYAML(root)
	if err != nil {
		return nil, err
	}
	return n.(*Map), nil
}

func fromYAML(node *yaml.Node) (Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, xerrors.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := fromYAML(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		l := make(List, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil
	case yaml.AliasNode:
		return fromYAML(node.Alias)
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	default:
		return nil, xerrors.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

func scalarFromYAML(node *yaml.Node) (Node, error) {
	switch node.ShortTag() {
	case "!!null":
		return Leaf{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, xerrors.Errorf("line %d: %w", node.Line, err)
		}
		return Leaf{Value: b}, nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, xerrors.Errorf("line %d: %w", node.Line, err)
		}
		return Leaf{Value: json.Number(strconv.FormatInt(i, 10))}, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, xerrors.Errorf("line %d: %w", node.Line, err)
		}
		return Leaf{Value: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}, nil
	default:
		return String(node.Value), nil
	}
}
