package formatter

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAMLOptions control YAML rendering.
type YAMLOptions struct {
	// Indent is the indentation width; 0 means 2.
	Indent int
	// FlowSequences emits lists of scalars inline, e.g. [python, django].
	FlowSequences bool
}

// FormatYAML renders v as YAML. Map keys come out sorted.
func FormatYAML(v any, opts YAMLOptions) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}
	if opts.FlowSequences {
		flowScalarSequences(&node)
	}

	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func flowScalarSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.SequenceNode && allScalars(n.Content) {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		flowScalarSequences(c)
	}
}

func allScalars(nodes []*yaml.Node) bool {
	for _, n := range nodes {
		if n.Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}
