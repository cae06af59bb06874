// Package projmerge provides the in-process API of the project document merge
// and diff engine, for tools that embed it rather than running pmerge.
//
// Documents are merged structurally: components, nodes, connections, comments
// and variants are matched by identity and reconciled field by field.
// Divergent edits are recorded as conflicts on the affected node or variant
// instead of failing the merge.
package projmerge

import (
	"fmt"

	"github.com/projmerge/projmerge/internal/codec"
	"github.com/projmerge/projmerge/internal/diff"
	"github.com/projmerge/projmerge/internal/merge"
	"github.com/projmerge/projmerge/internal/types"
	"github.com/projmerge/projmerge/internal/validation"
)

// Document model
type (
	Project    = types.Project
	Component  = types.Component
	Graph      = types.Graph
	Node       = types.Node
	NodeType   = types.NodeType
	Port       = types.Port
	Connection = types.Connection
	Comment    = types.Comment
	Variant    = types.Variant
	Conflict   = types.Conflict
	Annotation = types.Annotation
)

// Engine results and options
type (
	MergeOptions     = merge.Options
	MergeResult      = merge.Result
	ConflictSite     = merge.ConflictSite
	DiffOptions      = diff.Options
	DiffReport       = diff.Report
	ValidationReport = validation.Report
)

// Annotation constants
const (
	AnnotationCreated = types.AnnotationCreated
	AnnotationDeleted = types.AnnotationDeleted
	AnnotationChanged = types.AnnotationChanged
)

// Codec errors, for errors.Is
var (
	ErrMalformed    = codec.ErrMalformed
	ErrMissingKey   = codec.ErrMissingKey
	ErrDuplicateKey = codec.ErrDuplicateKey
)

// DefaultIndent is the indentation Marshal uses when none is given.
const DefaultIndent = codec.DefaultIndent

// Merge merges ours and theirs against their common ancestor. The inputs are
// not modified. A nil ancestor merges as an empty document.
func Merge(ancestor, ours, theirs *Project, opts MergeOptions) *MergeResult {
	return merge.Projects(ancestor, ours, theirs, opts)
}

// MergeBytes parses three encoded documents, merges them and encodes the
// result. A malformed ancestor is treated as empty; malformed ours or theirs
// is an error.
func MergeBytes(ancestor, ours, theirs []byte, opts MergeOptions) ([]byte, *MergeResult, error) {
	a, _ := codec.ParseAncestor(ancestor)
	o, err := codec.Parse(ours)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing ours: %w", err)
	}
	t, err := codec.Parse(theirs)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing theirs: %w", err)
	}
	res := merge.Projects(a, o, t, opts)
	data, err := codec.Marshal(res.Project, DefaultIndent)
	if err != nil {
		return nil, nil, err
	}
	return data, res, nil
}

// Diff reports what changed from base to current.
func Diff(base, current *Project, opts DiffOptions) *DiffReport {
	return diff.Projects(base, current, opts)
}

// Validate checks p's structural invariants. Call Fix on the report to
// repair what can be repaired in place.
func Validate(p *Project) *ValidationReport {
	return validation.Project(p)
}

// Parse decodes a document, rejecting malformed JSON and components that
// cannot be identified.
func Parse(data []byte) (*Project, error) {
	return codec.Parse(data)
}

// Marshal encodes p, indented with indent (DefaultIndent when empty).
func Marshal(p *Project, indent string) ([]byte, error) {
	return codec.Marshal(p, indent)
}
