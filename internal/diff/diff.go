// Package diff compares two versions of a project document and produces a
// report for before/after display. The report is built from deep copies; the
// inputs are never modified.
package diff

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/types"
)

// Options configures a diff.
type Options struct {
	Logger *zap.Logger
}

// Section partitions one family of entities by how they changed.
type Section[E any] struct {
	Created   []E `json:"created"`
	Deleted   []E `json:"deleted"`
	Changed   []E `json:"changed"`
	Unchanged []E `json:"unchanged"`
}

// Changes is the number of created, deleted and changed entries.
func (s Section[E]) Changes() int {
	return len(s.Created) + len(s.Deleted) + len(s.Changed)
}

// ValueChange is one entry of a keyed value family. Value is the current
// version (absent for deletions) and OldValue the base version (absent for
// creations).
type ValueChange struct {
	Name     string `json:"name"`
	Value    any    `json:"value,omitempty"`
	OldValue any    `json:"oldValue,omitempty"`
}

// Styles holds the two style tables of a project.
type Styles struct {
	Colors Section[ValueChange] `json:"colors"`
	Text   Section[ValueChange] `json:"text"`
}

// Report is the result of Projects.
//
// Changed components are annotated copies of the current version: created,
// deleted and changed nodes carry an annotation, and changed nodes carry
// their base version in diffData.parent. Deleted nodes are kept in the tree
// so they can be shown.
type Report struct {
	Components    Section[*types.Component] `json:"components"`
	Variants      Section[ValueChange]      `json:"variants"`
	Settings      Section[ValueChange]      `json:"settings"`
	Styles        Styles                    `json:"styles"`
	CloudServices Section[ValueChange]      `json:"cloudservices"`
}

// Summary counts changes per family.
type Summary struct {
	Components    int `json:"components"`
	Variants      int `json:"variants"`
	Settings      int `json:"settings"`
	Styles        int `json:"styles"`
	CloudServices int `json:"cloudservices"`
}

// Total is the number of changed entries across all families.
func (s Summary) Total() int {
	return s.Components + s.Variants + s.Settings + s.Styles + s.CloudServices
}

// Summary counts the report's changes.
func (r *Report) Summary() Summary {
	return Summary{
		Components:    r.Components.Changes(),
		Variants:      r.Variants.Changes(),
		Settings:      r.Settings.Changes(),
		Styles:        r.Styles.Colors.Changes() + r.Styles.Text.Changes(),
		CloudServices: r.CloudServices.Changes(),
	}
}

// Empty reports whether the two documents are equivalent.
func (r *Report) Empty() bool {
	return r.Summary().Total() == 0
}

// Projects diffs current against base. A nil document counts as empty.
func Projects(base, current *types.Project, opts Options) *Report {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b, c := base.Clone(), current.Clone()
	if b == nil {
		b = &types.Project{}
	}
	if c == nil {
		c = &types.Project{}
	}

	r := &Report{
		Components:    components(log, b.Components, c.Components),
		Variants:      variants(b.Variants, c.Variants),
		Settings:      values(b.Settings, c.Settings),
		CloudServices: values(table(b.Metadata["cloudservices"]), table(c.Metadata["cloudservices"])),
	}
	bs, _ := b.Metadata["styles"].(map[string]any)
	cs, _ := c.Metadata["styles"].(map[string]any)
	r.Styles = Styles{
		Colors: values(table(bs["colors"]), table(cs["colors"])),
		Text:   values(table(bs["text"]), table(cs["text"])),
	}
	log.Debug("diff computed", zap.Any("summary", r.Summary()))
	return r
}

// pair is one key's base and current versions; either may be nil.
type pair[E any] struct {
	base, current *E
}

// partition matches entities by key. Created, changed and unchanged entries
// follow current's order; deleted entries follow base's.
func partition[E any, K comparable](base, current []*E, key func(*E) K, equal func(a, b *E) bool) Section[pair[E]] {
	base, current = lo.Compact(base), lo.Compact(current)
	b := lo.KeyBy(base, key)
	c := lo.KeyBy(current, key)

	var s Section[pair[E]]
	for _, cur := range current {
		old, ok := b[key(cur)]
		switch {
		case !ok:
			s.Created = append(s.Created, pair[E]{current: cur})
		case equal(old, cur):
			s.Unchanged = append(s.Unchanged, pair[E]{base: old, current: cur})
		default:
			s.Changed = append(s.Changed, pair[E]{base: old, current: cur})
		}
	}
	for _, old := range base {
		if _, ok := c[key(old)]; !ok {
			s.Deleted = append(s.Deleted, pair[E]{base: old})
		}
	}
	return s
}

func variants(base, current []*types.Variant) Section[ValueChange] {
	s := partition(base, current, (*types.Variant).Key, func(a, b *types.Variant) bool {
		return types.DeepEqual(a, b)
	})
	return Section[ValueChange]{
		Created:   lo.Map(s.Created, variantChange),
		Deleted:   lo.Map(s.Deleted, variantChange),
		Changed:   lo.Map(s.Changed, variantChange),
		Unchanged: lo.Map(s.Unchanged, variantChange),
	}
}

func variantChange(p pair[types.Variant], _ int) ValueChange {
	vc := ValueChange{}
	if p.current != nil {
		vc.Name = p.current.Key()
		vc.Value = p.current
	}
	if p.base != nil {
		vc.Name = p.base.Key()
		if p.current == nil || !types.DeepEqual(p.base, p.current) {
			vc.OldValue = p.base
		}
	}
	return vc
}

// values diffs two keyed value tables in key order.
func values(base, current map[string]any) Section[ValueChange] {
	var s Section[ValueChange]
	for _, name := range jsonvalue.UnionKeys(base, current) {
		old, inBase := base[name]
		cur, inCurrent := current[name]
		switch {
		case !inBase:
			s.Created = append(s.Created, ValueChange{Name: name, Value: cur})
		case !inCurrent:
			s.Deleted = append(s.Deleted, ValueChange{Name: name, OldValue: old})
		case jsonvalue.Equal(old, cur):
			s.Unchanged = append(s.Unchanged, ValueChange{Name: name, Value: cur})
		default:
			s.Changed = append(s.Changed, ValueChange{Name: name, Value: cur, OldValue: old})
		}
	}
	return s
}

// table reads a value table stored either as an object or as an array of
// objects with a "name" member.
func table(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		out := make(map[string]any, len(t))
		for _, e := range t {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if name, ok := entry["name"].(string); ok && name != "" {
				out[name] = entry
			}
		}
		return out
	}
	return nil
}
