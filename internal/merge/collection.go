package merge

import (
	"github.com/samber/lo"
)

// EntityFunc resolves one entity both sides changed differently. Any of the
// arguments may be nil (absent on that side); returning nil deletes the entity.
type EntityFunc[E any] func(ancestor, ours, theirs *E) *E

// Collection performs a keyed three-way merge of entity lists.
//
// For every key present in ours or theirs:
//   - ours equal to theirs, or theirs equal to the ancestor: ours is kept
//   - ours equal to the ancestor: theirs is taken
//   - otherwise fn decides
//
// Absent entities are nil, so a one-sided deletion of an untouched entity is
// honored and a one-sided addition is kept. Keys only the ancestor has are
// dropped.
//
// The result lists ours' entries in ours' order, then entries only theirs has
// in theirs' order. Entries resolved to nil are dropped. Returned entries may
// alias the inputs; the inputs themselves are not modified.
func Collection[E any, K comparable](ancestors, ours, theirs []*E, key func(*E) K, equal func(a, b *E) bool, fn EntityFunc[E]) []*E {
	ancestors, ours, theirs = lo.Compact(ancestors), lo.Compact(ours), lo.Compact(theirs)

	a := lo.KeyBy(ancestors, key)
	o := lo.KeyBy(ours, key)
	t := lo.KeyBy(theirs, key)

	same := func(x, y *E) bool {
		if x == nil || y == nil {
			return x == y
		}
		return equal(x, y)
	}

	names := lo.Uniq(append(lo.Map(ours, func(e *E, _ int) K { return key(e) }),
		lo.Map(theirs, func(e *E, _ int) K { return key(e) })...))

	out := make([]*E, 0, len(names))
	for _, name := range names {
		anc, our, their := a[name], o[name], t[name]

		var res *E
		switch {
		case same(our, their):
			res = our
		case same(their, anc):
			res = our
		case same(our, anc):
			res = their
		default:
			res = fn(anc, our, their)
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out
}

// keepOurs is the entity function for atomic records with no finer-grained
// fields to reconcile.
func keepOurs[E any](_, ours, _ *E) *E {
	return ours
}

// mergeValue is a three-way merge of a single comparable value. A side that
// left the value at the ancestor's yields to the other; when both changed it,
// ours wins.
func mergeValue[T comparable](ancestor, ours, theirs T) T {
	if ancestor == ours {
		return theirs
	}
	return ours
}
