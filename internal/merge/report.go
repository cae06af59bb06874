package merge

import (
	"github.com/projmerge/projmerge/internal/tree"
	"github.com/projmerge/projmerge/internal/types"
)

// ConflictSite is a node or variant carrying recorded conflicts. Exactly one
// of NodeID and Variant is set.
type ConflictSite struct {
	Component string          `json:"component,omitempty"`
	NodeID    string          `json:"nodeId,omitempty"`
	Variant   string          `json:"variant,omitempty"`
	Conflicts types.Conflicts `json:"conflicts"`
}

// Conflicts lists the conflict sites of a document, components first in
// document order, then variants.
func Conflicts(p *types.Project) []ConflictSite {
	if p == nil {
		return nil
	}
	var sites []ConflictSite
	for _, c := range p.Components {
		if c == nil || c.Graph == nil {
			continue
		}
		tree.Walk(c.Graph.Roots, func(n, _ *types.Node) bool {
			if len(n.Conflicts) > 0 {
				sites = append(sites, ConflictSite{Component: c.Name, NodeID: n.ID, Conflicts: n.Conflicts})
			}
			return true
		})
	}
	for _, v := range p.Variants {
		if v != nil && len(v.Conflicts) > 0 {
			sites = append(sites, ConflictSite{Variant: v.Key(), Conflicts: v.Conflicts})
		}
	}
	return sites
}

// CountConflicts returns the number of individual conflicts across sites.
func CountConflicts(sites []ConflictSite) int {
	n := 0
	for _, s := range sites {
		n += len(s.Conflicts)
	}
	return n
}

// CountByKind tallies individual conflicts by kind.
func CountByKind(sites []ConflictSite) map[types.ConflictKind]int {
	counts := make(map[types.ConflictKind]int)
	for _, s := range sites {
		for _, c := range s.Conflicts {
			counts[c.Kind()]++
		}
	}
	return counts
}
