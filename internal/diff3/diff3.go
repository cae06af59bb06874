// Package diff3 implements line-based three-way text merging.
//
// Both descendants are aligned against the common ancestor independently
// (longest matching blocks, via go-difflib), then walked together: runs where
// all three agree are copied, runs changed on one side only take that side,
// and runs changed differently on both sides become conflict blocks that
// carry all three versions.
package diff3

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Separator lines framing a conflict block.
const (
	OriginalMarker = "------------- Original -------------"
	OursMarker     = "------------- Ours -------------"
	TheirsMarker   = "------------- Theirs -------------"
	EndMarker      = "------------------------------------"
)

// ChunkKind classifies one aligned region.
type ChunkKind int

const (
	// Stable: ancestor, ours and theirs agree.
	Stable ChunkKind = iota
	// Ours: only ours changed the region.
	Ours
	// Theirs: only theirs changed the region.
	Theirs
	// Same: both changed it identically.
	Same
	// Conflict: both changed it differently.
	Conflict
)

// Chunk is an aligned region of the three inputs.
type Chunk struct {
	Kind     ChunkKind
	Original []string
	Ours     []string
	Theirs   []string
}

// Resolved returns the lines the chunk contributes to an unconflicted merge.
// It must not be called on a Conflict chunk.
func (c Chunk) Resolved() []string {
	switch c.Kind {
	case Theirs:
		return c.Theirs
	case Stable:
		return c.Original
	default:
		return c.Ours
	}
}

// Result of a text merge.
type Result struct {
	Text         string
	HasConflicts bool
	// Conflicts is the number of conflict blocks in Text.
	Conflicts int
}

// Merge merges ours and theirs, both derived from ancestor.
func Merge(ancestor, ours, theirs string) Result {
	chunks := Chunks(SplitLines(ancestor), SplitLines(ours), SplitLines(theirs))

	var res Result
	var out []string
	for _, c := range chunks {
		if c.Kind != Conflict {
			out = append(out, c.Resolved()...)
			continue
		}
		res.Conflicts++
		out = append(out, OriginalMarker)
		out = append(out, c.Original...)
		out = append(out, OursMarker)
		out = append(out, c.Ours...)
		out = append(out, TheirsMarker)
		out = append(out, c.Theirs...)
		out = append(out, EndMarker)
	}
	res.HasConflicts = res.Conflicts > 0
	res.Text = strings.Join(out, "\n")
	return res
}

// SplitLines splits s on "\n". The empty string has no lines; a trailing
// newline yields a final empty line so joining restores the input exactly.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Chunks aligns ours (a) and theirs (b) against the ancestor (o) and returns
// the regions in order.
func Chunks(o, a, b []string) []Chunk {
	matchA := alignment(o, a)
	matchB := alignment(o, b)

	var chunks []Chunk
	iO, iA, iB := 0, 0, 0
	for iO < len(o) || iA < len(a) || iB < len(b) {
		// Stable run: the next ancestor lines sit exactly at the cursor on both sides.
		k := 0
		for iO+k < len(o) && matchA[iO+k] == iA+k && matchB[iO+k] == iB+k {
			k++
		}
		if k > 0 {
			chunks = append(chunks, Chunk{Kind: Stable, Original: o[iO : iO+k], Ours: a[iA : iA+k], Theirs: b[iB : iB+k]})
			iO, iA, iB = iO+k, iA+k, iB+k
			continue
		}

		// Unstable run up to the next ancestor line both sides kept.
		next := iO
		for next < len(o) && (matchA[next] < 0 || matchB[next] < 0) {
			next++
		}
		endA, endB := len(a), len(b)
		if next < len(o) {
			endA, endB = matchA[next], matchB[next]
		}
		chunks = append(chunks, classify(o[iO:next], a[iA:endA], b[iB:endB]))
		iO, iA, iB = next, endA, endB
	}
	return chunks
}

func classify(o, a, b []string) Chunk {
	c := Chunk{Original: o, Ours: a, Theirs: b}
	switch {
	case equalLines(a, o) && equalLines(b, o):
		c.Kind = Stable
	case equalLines(a, o):
		c.Kind = Theirs
	case equalLines(b, o):
		c.Kind = Ours
	case equalLines(a, b):
		c.Kind = Same
	default:
		c.Kind = Conflict
	}
	return c
}

// alignment maps each line of o to its matching line index in x, or -1.
func alignment(o, x []string) []int {
	match := make([]int, len(o))
	for i := range match {
		match[i] = -1
	}
	if len(o) == 0 || len(x) == 0 {
		return match
	}
	m := difflib.NewMatcherWithJunk(o, x, false, nil)
	for _, block := range m.GetMatchingBlocks() {
		for k := 0; k < block.Size; k++ {
			match[block.A+k] = block.B + k
		}
	}
	return match
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
