package types

import (
	"github.com/projmerge/projmerge/internal/jsonvalue"
)

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := &Project{
		Name:     p.Name,
		Settings: jsonvalue.CloneMap(p.Settings),
		Metadata: jsonvalue.CloneMap(p.Metadata),
		Extra:    jsonvalue.CloneMap(p.Extra),
	}
	if p.Components != nil {
		out.Components = make([]*Component, len(p.Components))
		for i, c := range p.Components {
			out.Components[i] = c.Clone()
		}
	}
	if p.Variants != nil {
		out.Variants = make([]*Variant, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = v.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	return &Component{
		ID:       c.ID,
		Name:     c.Name,
		Graph:    c.Graph.Clone(),
		Metadata: jsonvalue.CloneMap(c.Metadata),
		Extra:    jsonvalue.CloneMap(c.Extra),
	}
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Roots: CloneNodes(g.Roots),
		Extra: jsonvalue.CloneMap(g.Extra),
	}
	if g.Connections != nil {
		out.Connections = make([]*Connection, len(g.Connections))
		for i, c := range g.Connections {
			out.Connections[i] = c.Clone()
		}
	}
	if g.Comments != nil {
		out.Comments = make([]*Comment, len(g.Comments))
		for i, c := range g.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	return out
}

// CloneNodes deep-copies a forest.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := n.CloneShallow()
	out.Children = CloneNodes(n.Children)
	return out
}

// CloneShallow deep-copies the node's own fields but not its children.
func (n *Node) CloneShallow() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:                      n.ID,
		Type:                    NodeType{Name: n.Type.Name, Descriptor: jsonvalue.CloneMap(n.Type.Descriptor)},
		Parameters:              jsonvalue.CloneMap(n.Parameters),
		StateParameters:         cloneNested(n.StateParameters),
		StateTransitions:        cloneNested(n.StateTransitions),
		DefaultStateTransitions: jsonvalue.CloneMap(n.DefaultStateTransitions),
		Variant:                 n.Variant,
		Conflicts:               cloneConflicts(n.Conflicts),
		Annotation:              n.Annotation,
		Extra:                   jsonvalue.CloneMap(n.Extra),
	}
	if n.Ports != nil {
		out.Ports = make([]*Port, len(n.Ports))
		for i, p := range n.Ports {
			out.Ports[i] = p.Clone()
		}
	}
	if n.DiffData != nil {
		out.DiffData = &DiffData{Parent: n.DiffData.Parent.Clone()}
	}
	return out
}

// Clone returns a deep copy of the port.
func (p *Port) Clone() *Port {
	if p == nil {
		return nil
	}
	return &Port{
		Name:  p.Name,
		Plug:  p.Plug,
		Group: p.Group,
		Type:  jsonvalue.Clone(p.Type),
		Extra: jsonvalue.CloneMap(p.Extra),
	}
}

// Clone returns a copy of the connection.
func (c *Connection) Clone() *Connection {
	if c == nil {
		return nil
	}
	out := *c
	out.Extra = jsonvalue.CloneMap(c.Extra)
	return &out
}

// Clone returns a copy of the comment.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := *c
	out.Extra = jsonvalue.CloneMap(c.Extra)
	return &out
}

// Clone returns a deep copy of the variant.
func (v *Variant) Clone() *Variant {
	if v == nil {
		return nil
	}
	return &Variant{
		Name:                    v.Name,
		TypeName:                v.TypeName,
		Parameters:              jsonvalue.CloneMap(v.Parameters),
		StateParameters:         cloneNested(v.StateParameters),
		StateTransitions:        cloneNested(v.StateTransitions),
		DefaultStateTransitions: jsonvalue.CloneMap(v.DefaultStateTransitions),
		Conflicts:               cloneConflicts(v.Conflicts),
		Extra:                   jsonvalue.CloneMap(v.Extra),
	}
}

func cloneNested(m map[string]map[string]any) map[string]map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonvalue.CloneMap(v)
	}
	return out
}

// Conflict values are never mutated after they are recorded, so a copy of the
// slice is enough.
func cloneConflicts(cs Conflicts) Conflicts {
	if cs == nil {
		return nil
	}
	return append(Conflicts(nil), cs...)
}
