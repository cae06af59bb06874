package merge

import (
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/diff3"
	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/types"
)

// content is the field set nodes and variants share.
type content struct {
	Parameters              map[string]any
	StateParameters         map[string]map[string]any
	StateTransitions        map[string]map[string]any
	DefaultStateTransitions map[string]any
}

func nodeContent(n *types.Node) content {
	return content{
		Parameters:              n.Parameters,
		StateParameters:         n.StateParameters,
		StateTransitions:        n.StateTransitions,
		DefaultStateTransitions: n.DefaultStateTransitions,
	}
}

func variantContent(v *types.Variant) content {
	return content{
		Parameters:              v.Parameters,
		StateParameters:         v.StateParameters,
		StateTransitions:        v.StateTransitions,
		DefaultStateTransitions: v.DefaultStateTransitions,
	}
}

// Node merges one flat node record.
//
// A node deleted on one side stays deleted only if the other side made no
// meaningful change to it (position, metadata and dynamic ports do not
// count). Otherwise the changed version is resurrected. When both sides kept
// the node, each field family is merged independently and divergent edits are
// recorded as conflicts on the result, with ours as the working value.
//
// The inputs are not modified.
func (m *Merger) Node(ancestor, ours, theirs *types.FlatNode) *types.FlatNode {
	switch {
	case ours == nil && theirs == nil:
		return nil
	case ours == nil:
		if types.SoftEqualFlat(theirs, ancestor) {
			m.log.Debug("node deletion confirmed", zap.String("node", theirs.ID()), zap.String("deletedBy", "ours"))
			return nil
		}
		m.log.Debug("node resurrected", zap.String("node", theirs.ID()), zap.String("changedBy", "theirs"))
		return theirs.Clone()
	case theirs == nil:
		if types.SoftEqualFlat(ours, ancestor) {
			m.log.Debug("node deletion confirmed", zap.String("node", ours.ID()), zap.String("deletedBy", "theirs"))
			return nil
		}
		m.log.Debug("node resurrected", zap.String("node", ours.ID()), zap.String("changedBy", "ours"))
		return ours.Clone()
	}

	anc := ancestor
	if anc == nil {
		anc = &types.FlatNode{Node: &types.Node{}}
	}
	a, o, t := anc.Node, ours.Node, theirs.Node

	c, conflicts := m.mergeContent(nodeContent(a), nodeContent(o), nodeContent(t), m.sourceCheck(o, t))

	variant, vc := mergeVariantRef(a.Variant, o.Variant, t.Variant)
	if vc != nil {
		conflicts = append(conflicts, vc)
	}
	typ, tc := mergeNodeType(a.Type, o.Type, t.Type)
	if tc != nil {
		conflicts = append(conflicts, tc)
	}

	n := &types.Node{
		ID:                      o.ID,
		Type:                    typ,
		Parameters:              c.Parameters,
		StateParameters:         c.StateParameters,
		StateTransitions:        c.StateTransitions,
		DefaultStateTransitions: c.DefaultStateTransitions,
		Variant:                 variant,
		Ports:                   m.Ports(a.Ports, o.Ports, t.Ports),
		Extra:                   jsonvalue.MergeObject(a.Extra, o.Extra, t.Extra),
	}
	if len(conflicts) > 0 {
		n.Conflicts = conflicts
	}

	return &types.FlatNode{
		Node:   n,
		Parent: mergeValue(anc.Parent, ours.Parent, theirs.Parent),
		Sort:   mergeValue(anc.Sort, ours.Sort, theirs.Sort),
	}
}

// Ports merges port lists by name. Ports are structural, so a port both sides
// changed keeps ours and records nothing.
func (m *Merger) Ports(ancestor, ours, theirs []*types.Port) []*types.Port {
	merged := Collection(ancestor, ours, theirs,
		func(p *types.Port) string { return p.Name },
		deepEqual[types.Port],
		keepOurs[types.Port])
	if len(merged) == 0 {
		return nil
	}
	out := make([]*types.Port, len(merged))
	for i, p := range merged {
		out[i] = p.Clone()
	}
	return out
}

// Variant merges one style variant. It follows the node rules without the
// ports, type and tree position steps.
func (m *Merger) Variant(ancestor, ours, theirs *types.Variant) *types.Variant {
	switch {
	case ours == nil && theirs == nil:
		return nil
	case ours == nil:
		if softEqualVariant(theirs, ancestor) {
			m.log.Debug("variant deletion confirmed", zap.String("variant", theirs.Key()), zap.String("deletedBy", "ours"))
			return nil
		}
		m.log.Debug("variant resurrected", zap.String("variant", theirs.Key()), zap.String("changedBy", "theirs"))
		return theirs.Clone()
	case theirs == nil:
		if softEqualVariant(ours, ancestor) {
			m.log.Debug("variant deletion confirmed", zap.String("variant", ours.Key()), zap.String("deletedBy", "theirs"))
			return nil
		}
		m.log.Debug("variant resurrected", zap.String("variant", ours.Key()), zap.String("changedBy", "ours"))
		return ours.Clone()
	}

	a := ancestor
	if a == nil {
		a = &types.Variant{}
	}
	source := func(name string) bool { return m.source[ours.TypeName][name] }
	c, conflicts := m.mergeContent(variantContent(a), variantContent(ours), variantContent(theirs), source)

	v := &types.Variant{
		Name:                    ours.Name,
		TypeName:                ours.TypeName,
		Parameters:              c.Parameters,
		StateParameters:         c.StateParameters,
		StateTransitions:        c.StateTransitions,
		DefaultStateTransitions: c.DefaultStateTransitions,
		Extra:                   jsonvalue.MergeObject(a.Extra, ours.Extra, theirs.Extra),
	}
	if len(conflicts) > 0 {
		v.Conflicts = conflicts
	}
	return v
}

func softEqualVariant(a, b *types.Variant) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.Conflicts, y.Conflicts = nil, nil
	return types.DeepEqual(&x, &y)
}

// sourceCheck reports whether a parameter holds source text on any of the
// given versions of a node: either a port of that name declares a code
// editor, or the node type lists it in the source parameter table.
func (m *Merger) sourceCheck(nodes ...*types.Node) func(name string) bool {
	return func(name string) bool {
		for _, n := range nodes {
			if m.source[n.Type.Name][name] {
				return true
			}
			for _, p := range n.Ports {
				if p != nil && p.Name == name && p.IsSourceCode() {
					return true
				}
			}
		}
		return false
	}
}

func (m *Merger) mergeContent(a, o, t content, source func(string) bool) (content, types.Conflicts) {
	var out content
	var conflicts, cs types.Conflicts

	out.Parameters, cs = mergeFields(a.Parameters, o.Parameters, t.Parameters, source,
		func(name string, ours, theirs any) types.Conflict {
			return types.ParameterConflict{Name: name, Ours: ours, Theirs: theirs}
		})
	conflicts = append(conflicts, cs...)

	out.StateParameters, cs = mergeStates(a.StateParameters, o.StateParameters, t.StateParameters,
		func(state, name string, ours, theirs any) types.Conflict {
			return types.StateParameterConflict{State: state, Name: name, Ours: ours, Theirs: theirs}
		})
	conflicts = append(conflicts, cs...)

	out.StateTransitions, cs = mergeStates(a.StateTransitions, o.StateTransitions, t.StateTransitions,
		func(state, name string, ours, theirs any) types.Conflict {
			return types.StateTransitionConflict{State: state, Name: name, Ours: ours, Theirs: theirs}
		})
	conflicts = append(conflicts, cs...)

	out.DefaultStateTransitions, cs = mergeFields(a.DefaultStateTransitions, o.DefaultStateTransitions, t.DefaultStateTransitions, nil,
		func(name string, ours, theirs any) types.Conflict {
			return types.DefaultStateTransitionConflict{Name: name, Ours: ours, Theirs: theirs}
		})
	conflicts = append(conflicts, cs...)
	if len(out.DefaultStateTransitions) == 0 {
		out.DefaultStateTransitions = nil
	}

	return out, conflicts
}

// slot is a map member that may be absent.
type slot struct {
	v  any
	ok bool
}

func lookup(m map[string]any, key string) slot {
	v, ok := m[key]
	return slot{v: v, ok: ok}
}

func (s slot) equal(other slot) bool {
	return s.ok == other.ok && (!s.ok || jsonvalue.Equal(s.v, other.v))
}

// mergeFields three-way merges a map of values member by member. Members the
// source predicate accepts are text-merged with diff3; every other divergence
// keeps ours and is reported through conflict. The result is never nil.
func mergeFields(a, o, t map[string]any, source func(string) bool, conflict func(name string, ours, theirs any) types.Conflict) (map[string]any, types.Conflicts) {
	out := make(map[string]any, len(o))
	var conflicts types.Conflicts

	for _, name := range jsonvalue.UnionKeys(a, o, t) {
		as, os, ts := lookup(a, name), lookup(o, name), lookup(t, name)

		res := os
		switch {
		case os.equal(ts), ts.equal(as):
		case os.equal(as):
			res = ts
		default:
			if source != nil && source(name) {
				if merged, c, ok := mergeSource(name, as, os, ts); ok {
					res = slot{v: merged, ok: true}
					if c != nil {
						conflicts = append(conflicts, c)
					}
					break
				}
			}
			conflicts = append(conflicts, conflict(name, os.v, ts.v))
		}
		if res.ok {
			out[name] = jsonvalue.Clone(res.v)
		}
	}
	return out, conflicts
}

// mergeStates applies mergeFields one level down: state name, then member.
func mergeStates(a, o, t map[string]map[string]any, conflict func(state, name string, ours, theirs any) types.Conflict) (map[string]map[string]any, types.Conflicts) {
	var out map[string]map[string]any
	var conflicts types.Conflicts

	for _, state := range jsonvalue.UnionKeys(a, o, t) {
		fields, cs := mergeFields(a[state], o[state], t[state], nil,
			func(name string, ours, theirs any) types.Conflict {
				return conflict(state, name, ours, theirs)
			})
		conflicts = append(conflicts, cs...)
		if len(fields) == 0 {
			if !statePresent(state, a, o, t) {
				continue
			}
			fields = map[string]any{}
		}
		if out == nil {
			out = make(map[string]map[string]any)
		}
		out[state] = fields
	}
	return out, conflicts
}

// statePresent resolves whether a state survives the merge: the side that
// added or removed it relative to the ancestor wins, ours first.
func statePresent(state string, a, o, t map[string]map[string]any) bool {
	_, inA := a[state]
	_, inO := o[state]
	_, inT := t[state]
	if inO == inA {
		return inT
	}
	return inO
}

// mergeSource text-merges a source parameter. ok is false when a present
// value is not a string; the caller then falls back to a plain conflict.
func mergeSource(name string, a, o, t slot) (merged string, conflict types.Conflict, ok bool) {
	text := func(s slot) (string, bool) {
		if !s.ok || s.v == nil {
			return "", true
		}
		str, isStr := s.v.(string)
		return str, isStr
	}
	at, aok := text(a)
	ot, ook := text(o)
	tt, tok := text(t)
	if !aok || !ook || !tok {
		return "", nil, false
	}

	res := diff3.Merge(at, ot, tt)
	if res.HasConflicts {
		conflict = types.SourceCodeConflict{
			Name:        name,
			Ours:        ot,
			Theirs:      tt,
			Merged:      res.Text,
			HasConflict: true,
		}
	}
	return res.Text, conflict, true
}

func mergeVariantRef(a, o, t string) (string, types.Conflict) {
	switch {
	case o == t, a == t:
		return o, nil
	case a == o:
		return t, nil
	}
	return o, types.VariantConflict{Ours: o, Theirs: t}
}

func mergeNodeType(a, o, t types.NodeType) (types.NodeType, types.Conflict) {
	switch {
	case types.DeepEqual(o, t), types.DeepEqual(a, t):
		return cloneNodeType(o), nil
	case types.DeepEqual(a, o):
		return cloneNodeType(t), nil
	}
	return cloneNodeType(o), types.TypenameConflict{Ours: cloneNodeType(o), Theirs: cloneNodeType(t)}
}

func cloneNodeType(t types.NodeType) types.NodeType {
	return types.NodeType{Name: t.Name, Descriptor: jsonvalue.CloneMap(t.Descriptor)}
}

func deepEqual[E any](a, b *E) bool {
	return types.DeepEqual(a, b)
}
