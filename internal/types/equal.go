package types

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/projmerge/projmerge/internal/jsonvalue"
)

// CosmeticNodeKeys are node members that never count as a meaningful change.
var CosmeticNodeKeys = []string{"x", "y", "dynamicports", "metadata"}

var equateEmpty = cmpopts.EquateEmpty()

// DeepEqual reports structural equality of two model values. Empty and nil
// maps or slices compare equal.
func DeepEqual(a, b any) bool {
	return cmp.Equal(a, b, equateEmpty)
}

// softNode strips the members soft equality ignores. The result shares maps
// with n and must not be modified.
func softNode(n *Node) *Node {
	v := *n
	v.Extra = jsonvalue.Without(n.Extra, CosmeticNodeKeys...)
	v.Conflicts = nil
	v.Annotation = ""
	v.DiffData = nil
	return &v
}

// SoftEqualFlat compares two flat node records ignoring position, dynamic
// ports, metadata, conflicts and diff annotations. Sibling order only counts
// for non-root nodes: reordering roots is not a user-visible change.
func SoftEqualFlat(a, b *FlatNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Parent != b.Parent {
		return false
	}
	if a.Parent != "" && a.Sort != b.Sort {
		return false
	}
	return DeepEqual(softNode(a.Node), softNode(b.Node))
}

// SoftEqualComment compares comments ignoring their position.
func SoftEqualComment(a, b *Comment) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Text == b.Text && jsonvalue.Equal(a.Extra, b.Extra)
}
