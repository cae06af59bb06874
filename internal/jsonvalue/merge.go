package jsonvalue

// MergeObject performs a recursive three-way merge of plain JSON objects.
//
// Nested objects present on both sides are merged member by member. Any other
// member is a leaf: a side that left it equal to the ancestor yields to the
// other side, and when both sides changed it differently ours wins.
// Deletions are honored only when the other side left the member untouched;
// a deletion racing a modification keeps the modified value.
//
// The inputs are never modified. The result shares no maps with them.
func MergeObject(ancestor, ours, theirs map[string]any) map[string]any {
	if ours == nil && theirs == nil {
		return nil
	}

	out := make(map[string]any, len(ours)+len(theirs))
	for _, key := range UnionKeys(ancestor, ours, theirs) {
		a, inA := ancestor[key]
		o, inO := ours[key]
		t, inT := theirs[key]

		switch {
		case inO && inT:
			out[key] = mergeMember(a, inA, o, t)
		case inO:
			// Theirs removed it. Accept unless ours changed it meanwhile.
			if inA && Equal(a, o) {
				continue
			}
			out[key] = Clone(o)
		case inT:
			// Ours removed it, or theirs added it.
			if inA && Equal(a, t) {
				continue
			}
			out[key] = Clone(t)
		}
	}
	return out
}

func mergeMember(a any, inA bool, o, t any) any {
	oObj, oIsObj := o.(map[string]any)
	tObj, tIsObj := t.(map[string]any)
	if oIsObj && tIsObj {
		aObj, _ := a.(map[string]any)
		merged := MergeObject(aObj, oObj, tObj)
		if merged == nil {
			merged = map[string]any{}
		}
		return merged
	}

	switch {
	case Equal(o, t):
		return Clone(o)
	case inA && Equal(a, t):
		return Clone(o)
	case inA && Equal(a, o):
		return Clone(t)
	default:
		return Clone(o)
	}
}

// UnionKeys returns every key of the given maps once, in lexical order.
func UnionKeys[V any](maps ...map[string]V) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	return SortedKeys(seen)
}
