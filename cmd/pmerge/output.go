package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/projmerge/projmerge/internal/codec"
)

// outputJSON writes v as pretty-printed JSON.
func outputJSON(w io.Writer, v interface{}) {
	data, err := codec.MarshalValue(v, "  ")
	if err != nil {
		FatalError("encoding JSON: %v", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// toYAML encodes v as block-style YAML. v goes through JSON first so field
// names, omitempty and key order follow the JSON encoding.
func toYAML(v interface{}) ([]byte, error) {
	data, err := codec.MarshalValue(v, "")
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("converting to YAML: %w", err)
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

// blockStyle drops the flow and quoting styles the JSON input was parsed
// with. Tags are pinned first so strings that look like numbers stay quoted.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		n.Tag = n.ShortTag()
	}
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
