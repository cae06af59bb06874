// Package merge implements the three-way structural merge of project
// documents.
//
// Entities are matched by identity (component id or name, node id, variant
// typename and name, connection endpoints, comment id) and reconciled field by
// field. Divergent edits never fail a merge: they are recorded as conflicts on
// the surviving node or variant, with ours as the working value, and the
// result is always a loadable document.
package merge

import (
	"go.uber.org/zap"
)

// DefaultSourceParameters lists, per node type, parameters that hold source
// text even when the node carries no port declaring a code editor.
var DefaultSourceParameters = map[string][]string{
	"JavaScriptFunction": {"functionScript"},
	"Expression":         {"expression"},
	"Javascript2":        {"code"},
}

// Options configure a merge.
type Options struct {
	// Logger receives debug events (resurrections, confirmed deletions,
	// promoted nodes, validator fixes). Nil means no logging.
	Logger *zap.Logger

	// SourceParameters adds to DefaultSourceParameters.
	SourceParameters map[string][]string
}

// Merger carries the options of one merge and collects what it observed.
// A Merger is not safe for concurrent use; create one per merge.
type Merger struct {
	log    *zap.Logger
	source map[string]map[string]bool

	promoted []PromotedNode
}

// PromotedNode is a node whose parent disappeared in the merge (or whose
// parent chain became circular) and which was lifted to a root of its
// component rather than dropped.
type PromotedNode struct {
	Component string `json:"component"`
	NodeID    string `json:"nodeId"`
}

// New returns a Merger for the given options.
func New(opts Options) *Merger {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	source := make(map[string]map[string]bool)
	for _, table := range []map[string][]string{DefaultSourceParameters, opts.SourceParameters} {
		for typ, names := range table {
			if source[typ] == nil {
				source[typ] = make(map[string]bool)
			}
			for _, name := range names {
				source[typ][name] = true
			}
		}
	}
	return &Merger{log: log, source: source}
}

// Promoted returns the nodes lifted to roots so far.
func (m *Merger) Promoted() []PromotedNode {
	return m.promoted
}
