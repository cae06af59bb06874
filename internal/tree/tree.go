// Package tree converts node forests to flat, id-keyed record lists and back,
// so hierarchical graphs can be merged and diffed like flat collections.
package tree

import (
	"slices"

	"github.com/projmerge/projmerge/internal/types"
)

// Flatten walks the forest depth first and returns one record per node, in
// pre-order. Each record carries a copy of the node without children, its
// parent id ("" for roots) and its index among its siblings. The forest is not
// modified.
func Flatten(roots []*types.Node) []*types.FlatNode {
	var out []*types.FlatNode
	var walk func(nodes []*types.Node, parent string)
	walk = func(nodes []*types.Node, parent string) {
		for i, n := range nodes {
			if n == nil {
				continue
			}
			out = append(out, &types.FlatNode{Node: n.CloneShallow(), Parent: parent, Sort: i})
			walk(n.Children, n.ID)
		}
	}
	walk(roots, "")
	return out
}

// Rebuild reassembles a forest from flat records. Siblings are ordered by
// Sort; ties keep their relative order in flat.
//
// Records whose parent is missing from flat, or whose parent chain loops back
// on itself, are promoted to roots rather than dropped. Their ids are returned
// as promoted, in the order they appear in flat.
func Rebuild(flat []*types.FlatNode) (roots []*types.Node, promoted []string) {
	byID := make(map[string]*types.Node, len(flat))
	parentOf := make(map[string]string, len(flat))
	sortOf := make(map[string]int, len(flat))
	order := make([]string, 0, len(flat))
	for _, f := range flat {
		if f == nil || f.Node == nil {
			continue
		}
		id := f.ID()
		if _, dup := byID[id]; !dup {
			order = append(order, id)
		}
		n := f.Node.CloneShallow()
		n.Children = nil
		byID[id] = n
		parentOf[id] = f.Parent
		sortOf[id] = f.Sort
	}

	for _, id := range order {
		parent := parentOf[id]
		if parent == "" {
			continue
		}
		if _, ok := byID[parent]; !ok || loops(id, parentOf) {
			parentOf[id] = ""
			promoted = append(promoted, id)
		}
	}

	groups := make(map[string][]string)
	var rootIDs []string
	for _, id := range order {
		parent := parentOf[id]
		if parent == "" {
			rootIDs = append(rootIDs, id)
			continue
		}
		groups[parent] = append(groups[parent], id)
	}

	bySort := func(a, b string) int { return sortOf[a] - sortOf[b] }
	for parent, ids := range groups {
		slices.SortStableFunc(ids, bySort)
		p := byID[parent]
		for _, id := range ids {
			p.Children = append(p.Children, byID[id])
		}
	}

	// Promoted records go after the genuine roots, which keep their order.
	isPromoted := make(map[string]bool, len(promoted))
	for _, id := range promoted {
		isPromoted[id] = true
	}
	var genuine, lifted []string
	for _, id := range rootIDs {
		if isPromoted[id] {
			lifted = append(lifted, id)
		} else {
			genuine = append(genuine, id)
		}
	}
	slices.SortStableFunc(genuine, bySort)

	roots = make([]*types.Node, 0, len(rootIDs))
	for _, id := range genuine {
		roots = append(roots, byID[id])
	}
	for _, id := range lifted {
		roots = append(roots, byID[id])
	}
	return roots, promoted
}

// loops reports whether following parent links from id returns to id.
func loops(id string, parentOf map[string]string) bool {
	seen := map[string]bool{id: true}
	for cur := parentOf[id]; cur != ""; cur = parentOf[cur] {
		if seen[cur] {
			return cur == id
		}
		seen[cur] = true
	}
	return false
}

// Walk visits every node of the forest depth first, passing its parent (nil
// for roots). Returning false from fn skips the node's subtree.
func Walk(roots []*types.Node, fn func(n, parent *types.Node) bool) {
	var walk func(nodes []*types.Node, parent *types.Node)
	walk = func(nodes []*types.Node, parent *types.Node) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if fn(n, parent) {
				walk(n.Children, n)
			}
		}
	}
	walk(roots, nil)
}

// IDs returns the set of node ids in the forest.
func IDs(roots []*types.Node) map[string]bool {
	ids := make(map[string]bool)
	Walk(roots, func(n, _ *types.Node) bool {
		ids[n.ID] = true
		return true
	})
	return ids
}
