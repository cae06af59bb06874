package ui

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/projmerge/projmerge/internal/diff"
	"github.com/projmerge/projmerge/internal/jsonvalue"
	"github.com/projmerge/projmerge/internal/merge"
	"github.com/projmerge/projmerge/internal/tree"
	"github.com/projmerge/projmerge/internal/types"
)

var json = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

// FormatValue renders a JSON value on one line, truncated to maxLen.
func FormatValue(v any, maxLen int) string {
	if v == nil {
		return "null"
	}
	s, err := json.MarshalToString(v)
	if err != nil {
		s = fmt.Sprintf("%v", v)
	}
	if maxLen > 0 {
		s = TruncateSimple(s, maxLen)
	}
	return s
}

func arrow(old, cur any) string {
	return FormatValue(old, DefaultMaxValueLen) + RenderMuted(" → ") + FormatValue(cur, DefaultMaxValueLen)
}

// RenderDiff renders a diff report for the terminal.
func RenderDiff(r *diff.Report) string {
	if r.Empty() {
		return RenderPassIcon() + " No changes\n"
	}

	var b strings.Builder
	section := func(title string, n int) bool {
		if n == 0 {
			return false
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", RenderCategory(title), RenderMuted(fmt.Sprintf("(%d)", n)))
		return true
	}

	if section("Components", r.Components.Changes()) {
		for _, c := range r.Components.Created {
			b.WriteString(TreeIndent + RenderCreated(c.Name) + "\n")
		}
		for _, c := range r.Components.Deleted {
			b.WriteString(TreeIndent + RenderDeleted(c.Name) + "\n")
		}
		for _, c := range r.Components.Changed {
			b.WriteString(TreeIndent + RenderChanged(c.Name) + "\n")
			renderGraph(&b, c.Graph, TreeIndent+TreeIndent)
		}
	}

	if section("Variants", r.Variants.Changes()) {
		renderValues(&b, r.Variants, func(vc diff.ValueChange) string {
			old, _ := vc.OldValue.(*types.Variant)
			cur, _ := vc.Value.(*types.Variant)
			if old == nil || cur == nil {
				return ""
			}
			return strings.Join(changedKeys(old.Parameters, cur.Parameters), ", ")
		})
	}
	if section("Settings", r.Settings.Changes()) {
		renderValues(&b, r.Settings, nil)
	}
	if section("Styles", r.Styles.Colors.Changes()+r.Styles.Text.Changes()) {
		renderValues(&b, r.Styles.Colors, nil)
		renderValues(&b, r.Styles.Text, nil)
	}
	if section("Cloud services", r.CloudServices.Changes()) {
		renderValues(&b, r.CloudServices, nil)
	}
	return b.String()
}

// renderValues prints one keyed value family. detail, when set, replaces the
// old → new rendering of changed entries.
func renderValues(b *strings.Builder, s diff.Section[diff.ValueChange], detail func(diff.ValueChange) string) {
	for _, vc := range s.Created {
		b.WriteString(TreeIndent + RenderCreated(vc.Name) + "\n")
	}
	for _, vc := range s.Deleted {
		b.WriteString(TreeIndent + RenderDeleted(vc.Name) + "\n")
	}
	for _, vc := range s.Changed {
		line := arrow(vc.OldValue, vc.Value)
		if detail != nil {
			line = detail(vc)
		}
		fmt.Fprintf(b, "%s%s %s\n", TreeIndent, RenderChanged(vc.Name+":"), line)
	}
}

func renderGraph(b *strings.Builder, g *types.Graph, indent string) {
	if g == nil {
		return
	}
	tree.Walk(g.Roots, func(n, _ *types.Node) bool {
		label := fmt.Sprintf("%s (%s)", n.ID, n.Type)
		switch n.Annotation {
		case types.AnnotationCreated:
			b.WriteString(indent + RenderCreated(label) + "\n")
		case types.AnnotationDeleted:
			b.WriteString(indent + RenderDeleted(label) + "\n")
		case types.AnnotationChanged:
			b.WriteString(indent + RenderChanged(label) + "\n")
			if n.DiffData != nil && n.DiffData.Parent != nil {
				renderNodeChanges(b, n.DiffData.Parent, n, indent+TreeIndent)
			}
		}
		return true
	})
	for _, c := range g.Connections {
		switch c.Annotation {
		case types.AnnotationCreated:
			b.WriteString(indent + RenderCreated(c.Key().String()) + "\n")
		case types.AnnotationDeleted:
			b.WriteString(indent + RenderDeleted(c.Key().String()) + "\n")
		}
	}
	for _, c := range g.Comments {
		text := TruncateSimple(strings.ReplaceAll(c.Text, "\n", " "), DefaultMaxValueLen)
		switch c.Annotation {
		case types.AnnotationCreated:
			b.WriteString(indent + RenderCreated("comment "+text) + "\n")
		case types.AnnotationDeleted:
			b.WriteString(indent + RenderDeleted("comment "+text) + "\n")
		case types.AnnotationChanged:
			b.WriteString(indent + RenderChanged("comment "+text) + "\n")
		}
	}
}

func renderNodeChanges(b *strings.Builder, old, cur *types.Node, indent string) {
	if old.Type.String() != cur.Type.String() {
		fmt.Fprintf(b, "%s%s%s\n", indent, TreeLast, "type: "+arrow(old.Type.String(), cur.Type.String()))
	}
	if old.Variant != cur.Variant {
		fmt.Fprintf(b, "%s%s%s\n", indent, TreeLast, "variant: "+arrow(old.Variant, cur.Variant))
	}
	for _, k := range changedKeys(old.Parameters, cur.Parameters) {
		fmt.Fprintf(b, "%s%s%s: %s\n", indent, TreeLast, k, arrow(old.Parameters[k], cur.Parameters[k]))
	}
	if !jsonvalue.Equal(old.StateParameters, cur.StateParameters) {
		fmt.Fprintf(b, "%s%s%s\n", indent, TreeLast, "state parameters changed")
	}
	if !jsonvalue.Equal(old.StateTransitions, cur.StateTransitions) ||
		!jsonvalue.Equal(old.DefaultStateTransitions, cur.DefaultStateTransitions) {
		fmt.Fprintf(b, "%s%s%s\n", indent, TreeLast, "state transitions changed")
	}
}

func changedKeys(old, cur map[string]any) []string {
	var keys []string
	for _, k := range jsonvalue.UnionKeys(old, cur) {
		if !jsonvalue.Equal(old[k], cur[k]) {
			keys = append(keys, k)
		}
	}
	return keys
}

// RenderMergeSummary renders what a merge recorded: conflicts per node and
// variant, nodes promoted to roots, and validation issues left unfixed.
// It returns "" when there is nothing to report.
func RenderMergeSummary(res *merge.Result) string {
	var b strings.Builder

	if n := merge.CountConflicts(res.Conflicts); n > 0 {
		fmt.Fprintf(&b, "%s %s\n", RenderWarnIcon(),
			RenderWarn(fmt.Sprintf("%d conflict(s) in %d node(s)/variant(s)", n, len(res.Conflicts))))
		for _, site := range res.Conflicts {
			where := site.Component + " / " + site.NodeID
			if site.Variant != "" {
				where = "variant " + site.Variant
			}
			b.WriteString(TreeIndent + RenderAccent(where) + "\n")
			for _, c := range site.Conflicts {
				renderConflict(&b, c, TreeIndent+TreeIndent)
			}
		}
		b.WriteString(TreeIndent + RenderMuted("by kind: "+kindCounts(merge.CountByKind(res.Conflicts))) + "\n")
	}

	if len(res.Promoted) > 0 {
		fmt.Fprintf(&b, "%s %d node(s) lost their parent and were moved to the top level\n",
			RenderInfoIcon(), len(res.Promoted))
		for _, p := range res.Promoted {
			b.WriteString(TreeIndent + p.Component + " / " + p.NodeID + "\n")
		}
	}

	if res.Validation != nil {
		for _, issue := range res.Validation.Remaining() {
			fmt.Fprintf(&b, "%s %s\n", RenderFailIcon(), RenderFail(issue.Error()))
		}
	}
	return b.String()
}

func renderConflict(b *strings.Builder, c types.Conflict, indent string) {
	label := string(c.Kind()) + " " + c.Field()
	var ours, theirs any
	switch c := c.(type) {
	case types.ParameterConflict:
		ours, theirs = c.Ours, c.Theirs
	case types.StateParameterConflict:
		label += " [" + c.State + "]"
		ours, theirs = c.Ours, c.Theirs
	case types.StateTransitionConflict:
		label += " [" + c.State + "]"
		ours, theirs = c.Ours, c.Theirs
	case types.DefaultStateTransitionConflict:
		ours, theirs = c.Ours, c.Theirs
	case types.VariantConflict:
		ours, theirs = c.Ours, c.Theirs
	case types.TypenameConflict:
		ours, theirs = c.Ours.String(), c.Theirs.String()
	case types.SourceCodeConflict:
		fmt.Fprintf(b, "%s%s%s: overlapping edits, both kept in conflict blocks\n", indent, TreeChild, label)
		for _, line := range strings.Split(TruncateLines(c.Merged, DefaultMaxLines, DefaultContextLines), "\n") {
			b.WriteString(indent + TreeIndent + RenderMuted(line) + "\n")
		}
		return
	}
	fmt.Fprintf(b, "%s%s%s: ours %s, theirs %s\n", indent, TreeChild, label,
		FormatValue(ours, DefaultMaxValueLen), FormatValue(theirs, DefaultMaxValueLen))
}

func kindCounts(counts map[types.ConflictKind]int) string {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[types.ConflictKind(k)])
	}
	return strings.Join(parts, " ")
}
