package types

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// wire encodes documents. HTML characters are left alone so source code
// parameters are written back exactly as the editor wrote them.
var wire = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Members modelled by each type. Everything else is kept in Extra so documents
// written by newer editors survive a merge untouched.
var (
	projectKeys    = keySet("name", "settings", "metadata", "components", "variants")
	componentKeys  = keySet("id", "name", "graph", "metadata")
	graphKeys      = keySet("roots", "connections", "comments")
	nodeKeys       = keySet("id", "type", "parameters", "stateParameters", "stateTransitions", "defaultStateTransitions", "variant", "ports", "children", "conflicts", "annotation", "diffData")
	portKeys       = keySet("name", "plug", "group", "type")
	connectionKeys = keySet("fromId", "fromProperty", "toId", "toProperty", "annotation")
	commentKeys    = keySet("id", "text", "x", "y", "annotation")
	variantKeys    = keySet("name", "typename", "parameters", "stateParameters", "stateTransitions", "defaultStateTransitions", "conflicts")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// decodeWithExtra unmarshals data into dst and returns the members of the
// object that are not in known.
func decodeWithExtra(data []byte, dst any, known map[string]bool) (map[string]any, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, v := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra, nil
}

// encodeWithExtra marshals v and splices extra members into the object.
// Modelled members win over extras with the same name.
func encodeWithExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := wire.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for k, ev := range extra {
		if _, ok := members[k]; ok {
			continue
		}
		raw, err := wire.Marshal(ev)
		if err != nil {
			return nil, err
		}
		members[k] = raw
	}
	return wire.Marshal(members)
}

func (p Project) MarshalJSON() ([]byte, error) {
	type alias Project
	a := alias(p)
	if a.Components == nil {
		a.Components = []*Component{}
	}
	return encodeWithExtra(a, p.Extra)
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type alias Project
	var a alias
	extra, err := decodeWithExtra(data, &a, projectKeys)
	if err != nil {
		return err
	}
	*p = Project(a)
	p.Extra = extra
	return nil
}

func (c Component) MarshalJSON() ([]byte, error) {
	type alias Component
	return encodeWithExtra(alias(c), c.Extra)
}

func (c *Component) UnmarshalJSON(data []byte) error {
	type alias Component
	var a alias
	extra, err := decodeWithExtra(data, &a, componentKeys)
	if err != nil {
		return err
	}
	*c = Component(a)
	c.Extra = extra
	return nil
}

func (g Graph) MarshalJSON() ([]byte, error) {
	type alias Graph
	a := alias(g)
	if a.Roots == nil {
		a.Roots = []*Node{}
	}
	if a.Connections == nil {
		a.Connections = []*Connection{}
	}
	return encodeWithExtra(a, g.Extra)
}

func (g *Graph) UnmarshalJSON(data []byte) error {
	type alias Graph
	var a alias
	extra, err := decodeWithExtra(data, &a, graphKeys)
	if err != nil {
		return err
	}
	*g = Graph(a)
	g.Extra = extra
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	type alias Node
	a := alias(n)
	if a.Ports == nil {
		a.Ports = []*Port{}
	}
	if a.Children == nil {
		a.Children = []*Node{}
	}
	return encodeWithExtra(a, n.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var a alias
	extra, err := decodeWithExtra(data, &a, nodeKeys)
	if err != nil {
		return err
	}
	*n = Node(a)
	n.Extra = extra
	return nil
}

func (p Port) MarshalJSON() ([]byte, error) {
	type alias Port
	return encodeWithExtra(alias(p), p.Extra)
}

func (p *Port) UnmarshalJSON(data []byte) error {
	type alias Port
	var a alias
	extra, err := decodeWithExtra(data, &a, portKeys)
	if err != nil {
		return err
	}
	*p = Port(a)
	p.Extra = extra
	return nil
}

func (c Connection) MarshalJSON() ([]byte, error) {
	type alias Connection
	return encodeWithExtra(alias(c), c.Extra)
}

func (c *Connection) UnmarshalJSON(data []byte) error {
	type alias Connection
	var a alias
	extra, err := decodeWithExtra(data, &a, connectionKeys)
	if err != nil {
		return err
	}
	*c = Connection(a)
	c.Extra = extra
	return nil
}

func (c Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	return encodeWithExtra(alias(c), c.Extra)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type alias Comment
	var a alias
	extra, err := decodeWithExtra(data, &a, commentKeys)
	if err != nil {
		return err
	}
	*c = Comment(a)
	c.Extra = extra
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	type alias Variant
	return encodeWithExtra(alias(v), v.Extra)
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	type alias Variant
	var a alias
	extra, err := decodeWithExtra(data, &a, variantKeys)
	if err != nil {
		return err
	}
	*v = Variant(a)
	v.Extra = extra
	return nil
}
