package types

// FlatNode is a node detached from its tree so keyed collection merging can
// treat it like any other record. Node.Children is always nil; Parent is the
// parent node id ("" for roots) and Sort is the index among its siblings.
type FlatNode struct {
	Node   *Node
	Parent string
	Sort   int
}

// ID returns the node id.
func (f *FlatNode) ID() string {
	return f.Node.ID
}

// IsRoot reports whether the record had no parent.
func (f *FlatNode) IsRoot() bool {
	return f.Parent == ""
}

// Clone deep-copies the record.
func (f *FlatNode) Clone() *FlatNode {
	if f == nil {
		return nil
	}
	return &FlatNode{Node: f.Node.CloneShallow(), Parent: f.Parent, Sort: f.Sort}
}
