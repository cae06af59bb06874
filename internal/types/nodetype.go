package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeType is either a plain type name or a descriptor object. The JSON shape
// it was read from is preserved when written back.
type NodeType struct {
	Name       string
	Descriptor map[string]any
}

// TypeName returns a NodeType holding a plain name.
func TypeName(name string) NodeType {
	return NodeType{Name: name}
}

func (t NodeType) String() string {
	return t.Name
}

// IsZero reports whether no type was given.
func (t NodeType) IsZero() bool {
	return t.Name == "" && t.Descriptor == nil
}

func (t NodeType) MarshalJSON() ([]byte, error) {
	if t.Descriptor != nil {
		return wire.Marshal(t.Descriptor)
	}
	return wire.Marshal(t.Name)
}

func (t *NodeType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = NodeType{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*t = NodeType{Name: name}
		return nil
	case len(data) > 0 && data[0] == '{':
		var desc map[string]any
		if err := json.Unmarshal(data, &desc); err != nil {
			return err
		}
		name, _ := desc["name"].(string)
		*t = NodeType{Name: name, Descriptor: desc}
		return nil
	default:
		return fmt.Errorf("node type must be a string or an object, got %s", data)
	}
}
