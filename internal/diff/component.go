package diff

import (
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/tree"
	"github.com/projmerge/projmerge/internal/types"
)

func components(log *zap.Logger, base, current []*types.Component) Section[*types.Component] {
	s := partition(base, current, (*types.Component).Key, func(a, b *types.Component) bool {
		return types.DeepEqual(a, b)
	})

	out := Section[*types.Component]{}
	for _, p := range s.Created {
		out.Created = append(out.Created, p.current)
	}
	for _, p := range s.Deleted {
		out.Deleted = append(out.Deleted, p.base)
	}
	for _, p := range s.Unchanged {
		out.Unchanged = append(out.Unchanged, p.current)
	}
	for _, p := range s.Changed {
		annotated, changes := component(p.base, p.current)
		if changes == 0 {
			// Only cosmetic members moved.
			out.Unchanged = append(out.Unchanged, p.current)
			continue
		}
		log.Debug("component changed", zap.Stringer("component", p.current.Key()), zap.Int("changes", changes))
		out.Changed = append(out.Changed, annotated)
	}
	return out
}

// component annotates cur, which must be a private copy, against base and
// returns it with the number of meaningful changes found.
func component(base, cur *types.Component) (*types.Component, int) {
	changes := 0
	if base.Name != cur.Name {
		changes++
	}
	if !jsonvalue.Equal(base.Metadata, cur.Metadata) {
		changes++
	}

	bg, cg := base.Graph, cur.Graph
	if bg == nil {
		bg = &types.Graph{}
	}
	if cg == nil {
		cg = &types.Graph{}
		cur.Graph = cg
	}

	var n int
	cg.Roots, n = roots(bg.Roots, cg.Roots)
	changes += n
	cg.Connections, n = connections(bg.Connections, cg.Connections)
	changes += n
	cg.Comments, n = comments(bg.Comments, cg.Comments)
	changes += n
	return cur, changes
}

// roots annotates the current forest. Deleted nodes are put back at their
// base position so they can be displayed.
func roots(base, current []*types.Node) ([]*types.Node, int) {
	s := partition(tree.Flatten(base), tree.Flatten(current), (*types.FlatNode).ID, types.SoftEqualFlat)

	flat := make([]*types.FlatNode, 0, len(s.Created)+len(s.Changed)+len(s.Unchanged)+len(s.Deleted))
	for _, p := range s.Unchanged {
		flat = append(flat, p.current)
	}
	for _, p := range s.Changed {
		p.current.Node.Annotation = types.AnnotationChanged
		p.current.Node.DiffData = &types.DiffData{Parent: p.base.Node}
		flat = append(flat, p.current)
	}
	for _, p := range s.Created {
		p.current.Node.Annotation = types.AnnotationCreated
		flat = append(flat, p.current)
	}
	for _, p := range s.Deleted {
		p.base.Node.Annotation = types.AnnotationDeleted
		flat = append(flat, p.base)
	}
	if s.Changes() == 0 {
		return current, 0
	}
	rebuilt, _ := tree.Rebuild(flat)
	return rebuilt, s.Changes()
}

// connections have no editable fields: a connection is either present on
// both sides or created or deleted. The result lists deleted, unchanged and
// created connections in that order.
func connections(base, current []*types.Connection) ([]*types.Connection, int) {
	s := partition(base, current, (*types.Connection).Key, func(_, _ *types.Connection) bool { return true })

	out := make([]*types.Connection, 0, len(s.Deleted)+len(s.Unchanged)+len(s.Created))
	for _, p := range s.Deleted {
		p.base.Annotation = types.AnnotationDeleted
		out = append(out, p.base)
	}
	for _, p := range s.Unchanged {
		out = append(out, p.current)
	}
	for _, p := range s.Created {
		p.current.Annotation = types.AnnotationCreated
		out = append(out, p.current)
	}
	return out, s.Changes()
}

// comments compare by text only; moving a comment is not a change.
func comments(base, current []*types.Comment) ([]*types.Comment, int) {
	s := partition(base, current, func(c *types.Comment) string { return c.ID }, func(a, b *types.Comment) bool {
		return a.Text == b.Text
	})

	out := make([]*types.Comment, 0, len(s.Deleted)+len(s.Unchanged)+len(s.Changed)+len(s.Created))
	for _, p := range s.Deleted {
		p.base.Annotation = types.AnnotationDeleted
		out = append(out, p.base)
	}
	for _, p := range s.Unchanged {
		out = append(out, p.current)
	}
	for _, p := range s.Changed {
		p.current.Annotation = types.AnnotationChanged
		out = append(out, p.current)
	}
	for _, p := range s.Created {
		p.current.Annotation = types.AnnotationCreated
		out = append(out, p.current)
	}
	if len(out) == 0 {
		return current, 0
	}
	return out, s.Changes()
}
