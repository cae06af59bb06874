package merge

import (
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/types"
	"github.com/projmerge/projmerge/internal/validation"
)

// Result is the outcome of a project merge.
type Result struct {
	// Project is the merged document. It shares nothing with the inputs.
	Project *types.Project

	// Conflicts lists every node and variant carrying recorded conflicts.
	Conflicts []ConflictSite

	// Promoted lists nodes lifted to roots because their parent was lost.
	Promoted []PromotedNode

	// Validation is the post-merge structural check. Fixable issues have
	// already been repaired.
	Validation *validation.Report
}

// HasConflicts reports whether any conflict was recorded.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Projects merges ours and theirs, both derived from ancestor, validates the
// result and applies the validator's repairs. A nil ancestor merges as an
// empty document. The inputs are not modified.
func Projects(ancestor, ours, theirs *types.Project, opts Options) *Result {
	m := New(opts)
	p := m.Project(ancestor, ours, theirs)

	report := validation.Project(p)
	if !report.OK() {
		for _, issue := range report.Issues {
			if issue.Fixable() {
				m.log.Debug("repairing merged document", zap.String("issue", issue.Error()))
			}
		}
		fixed := report.Fix()
		m.log.Debug("validator fixes applied", zap.Int("fixed", fixed))
		for _, issue := range report.Remaining() {
			m.log.Warn("merged document has an unfixable issue", zap.String("issue", issue.Error()))
		}
	}

	return &Result{
		Project:    p,
		Conflicts:  Conflicts(p),
		Promoted:   m.Promoted(),
		Validation: report,
	}
}

// Project merges the whole document without validating it. Every member but
// components and variants goes through the recursive plain-object merge;
// components are merged by id (or name) with Component, variants by
// typename and name with Variant. An empty variant list is omitted.
func (m *Merger) Project(ancestor, ours, theirs *types.Project) *types.Project {
	if ancestor == nil {
		ancestor = &types.Project{}
	}
	if ours == nil {
		ours = &types.Project{}
	}
	if theirs == nil {
		theirs = &types.Project{}
	}

	out := &types.Project{
		Name:     mergeValue(ancestor.Name, ours.Name, theirs.Name),
		Settings: jsonvalue.MergeObject(ancestor.Settings, ours.Settings, theirs.Settings),
		Metadata: jsonvalue.MergeObject(ancestor.Metadata, ours.Metadata, theirs.Metadata),
		Extra:    jsonvalue.MergeObject(ancestor.Extra, ours.Extra, theirs.Extra),
	}

	components := Collection(ancestor.Components, ours.Components, theirs.Components,
		(*types.Component).Key,
		deepEqual[types.Component],
		m.Component)
	out.Components = make([]*types.Component, len(components))
	for i, c := range components {
		out.Components[i] = c.Clone()
	}

	variants := Collection(ancestor.Variants, ours.Variants, theirs.Variants,
		(*types.Variant).Key,
		deepEqual[types.Variant],
		m.Variant)
	if len(variants) > 0 {
		out.Variants = make([]*types.Variant, len(variants))
		for i, v := range variants {
			out.Variants[i] = v.Clone()
		}
	}
	return out
}
