package merge

import (
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/tree"
	"github.com/projmerge/projmerge/internal/types"
)

// Component merges one component. A component deleted on one side stays
// deleted only if the other side left it exactly as the ancestor had it.
//
// When both sides kept it, the graph is merged part by part, a rename is
// taken from theirs only if ours kept the ancestor's name, and metadata is
// merged recursively.
func (m *Merger) Component(ancestor, ours, theirs *types.Component) *types.Component {
	switch {
	case ours == nil && theirs == nil:
		return nil
	case ours == nil:
		if types.DeepEqual(theirs, ancestor) {
			m.log.Debug("component deletion confirmed", zap.Stringer("component", theirs.Key()), zap.String("deletedBy", "ours"))
			return nil
		}
		m.log.Debug("component resurrected", zap.Stringer("component", theirs.Key()), zap.String("changedBy", "theirs"))
		return theirs.Clone()
	case theirs == nil:
		if types.DeepEqual(ours, ancestor) {
			m.log.Debug("component deletion confirmed", zap.Stringer("component", ours.Key()), zap.String("deletedBy", "theirs"))
			return nil
		}
		m.log.Debug("component resurrected", zap.Stringer("component", ours.Key()), zap.String("changedBy", "ours"))
		return ours.Clone()
	}

	a := ancestor
	if a == nil {
		a = &types.Component{}
	}

	out := &types.Component{
		ID:       ours.ID,
		Name:     ours.Name,
		Metadata: jsonvalue.MergeObject(a.Metadata, ours.Metadata, theirs.Metadata),
		Extra:    jsonvalue.MergeObject(a.Extra, ours.Extra, theirs.Extra),
	}
	if ours.Name == a.Name {
		out.Name = theirs.Name
	}
	out.Graph = m.Graph(out.Name, a.Graph, ours.Graph, theirs.Graph)
	return out
}

// Graph merges a component graph: connections, the node tree and comments.
// component labels promoted nodes.
func (m *Merger) Graph(component string, ancestor, ours, theirs *types.Graph) *types.Graph {
	a, o, t := orEmpty(ancestor), orEmpty(ours), orEmpty(theirs)
	return &types.Graph{
		Roots:       m.Roots(component, a.Roots, o.Roots, t.Roots),
		Connections: m.Connections(a.Connections, o.Connections, t.Connections),
		Comments:    m.Comments(a.Comments, o.Comments, t.Comments),
		Extra:       jsonvalue.MergeObject(a.Extra, o.Extra, t.Extra),
	}
}

func orEmpty(g *types.Graph) *types.Graph {
	if g == nil {
		return &types.Graph{}
	}
	return g
}

// Roots merges node forests. The trees are flattened so every node is matched
// by id wherever it sits, merged with Node, and rebuilt. Nodes left without a
// parent are promoted to roots and recorded.
func (m *Merger) Roots(component string, ancestor, ours, theirs []*types.Node) []*types.Node {
	flat := Collection(tree.Flatten(ancestor), tree.Flatten(ours), tree.Flatten(theirs),
		(*types.FlatNode).ID,
		deepEqual[types.FlatNode],
		m.Node)

	roots, promoted := tree.Rebuild(flat)
	for _, id := range promoted {
		m.log.Debug("node promoted to root", zap.String("component", component), zap.String("node", id))
		m.promoted = append(m.promoted, PromotedNode{Component: component, NodeID: id})
	}
	return roots
}

// Connections merges connection lists by endpoints. Connections are atomic:
// when both sides changed one, ours is kept.
func (m *Merger) Connections(ancestor, ours, theirs []*types.Connection) []*types.Connection {
	merged := Collection(ancestor, ours, theirs,
		(*types.Connection).Key,
		deepEqual[types.Connection],
		keepOurs[types.Connection])
	out := make([]*types.Connection, len(merged))
	for i, c := range merged {
		out[i] = c.Clone()
	}
	return out
}

// Comments merges comments by id, ignoring their position. Divergent edits
// keep ours.
func (m *Merger) Comments(ancestor, ours, theirs []*types.Comment) []*types.Comment {
	merged := Collection(ancestor, ours, theirs,
		func(c *types.Comment) string { return c.ID },
		types.SoftEqualComment,
		keepOurs[types.Comment])
	if len(merged) == 0 {
		return nil
	}
	out := make([]*types.Comment, len(merged))
	for i, c := range merged {
		out[i] = c.Clone()
	}
	return out
}
