package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projmerge/projmerge/internal/types"
)

func forest(t *testing.T, s string) []*types.Node {
	t.Helper()
	var roots []*types.Node
	require.NoError(t, json.Unmarshal([]byte(s), &roots))
	return roots
}

const nested = `[
	{"id":"a","type":"Group","parameters":{},"children":[
		{"id":"a1","type":"Text","parameters":{"text":"one"}},
		{"id":"a2","type":"Group","parameters":{},"children":[
			{"id":"a2x","type":"Text","parameters":{}},
			{"id":"a2y","type":"Image","parameters":{"src":"y.png"}}
		]},
		{"id":"a3","type":"Text","parameters":{}}
	]},
	{"id":"b","type":"Text","parameters":{"text":"root"}}
]`

func TestFlatten(t *testing.T) {
	roots := forest(t, nested)
	flat := Flatten(roots)

	require.Len(t, flat, 7)
	got := make([]string, len(flat))
	for i, f := range flat {
		got[i] = f.ID()
		assert.Nil(t, f.Node.Children, "flat records carry no children")
	}
	assert.Equal(t, []string{"a", "a1", "a2", "a2x", "a2y", "a3", "b"}, got)

	assert.Equal(t, "", flat[0].Parent)
	assert.Equal(t, "a2", flat[4].Parent)
	assert.Equal(t, 1, flat[4].Sort)
	assert.Equal(t, 1, flat[6].Sort)

	// input untouched
	assert.Len(t, roots[0].Children, 3)
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]string{
		"nested":  nested,
		"empty":   `[]`,
		"single":  `[{"id":"x","type":"T","parameters":{}}]`,
		"chain":   `[{"id":"1","type":"T","parameters":{},"children":[{"id":"2","type":"T","parameters":{},"children":[{"id":"3","type":"T","parameters":{},"children":[{"id":"4","type":"T","parameters":{}}]}]}]}]`,
		"siblings": `[{"id":"r","type":"T","parameters":{},"children":[{"id":"c1","type":"T","parameters":{}},{"id":"c2","type":"T","parameters":{}},{"id":"c3","type":"T","parameters":{}}]}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			roots := forest(t, src)
			rebuilt, promoted := Rebuild(Flatten(roots))
			assert.Empty(t, promoted)
			assert.True(t, types.DeepEqual(roots, rebuilt), "rebuild(flatten(x)) != x")
		})
	}
}

func TestRebuildSortsSiblings(t *testing.T) {
	flat := Flatten(forest(t, nested))
	// reverse a2's children and shuffle record order
	for _, f := range flat {
		switch f.ID() {
		case "a2x":
			f.Sort = 1
		case "a2y":
			f.Sort = 0
		}
	}
	flat[3], flat[4] = flat[4], flat[3]

	roots, _ := Rebuild(flat)
	a2 := roots[0].Children[1]
	require.Len(t, a2.Children, 2)
	assert.Equal(t, "a2y", a2.Children[0].ID)
	assert.Equal(t, "a2x", a2.Children[1].ID)
}

func TestRebuildStableOnTies(t *testing.T) {
	flat := []*types.FlatNode{
		{Node: &types.Node{ID: "p"}},
		{Node: &types.Node{ID: "first"}, Parent: "p", Sort: 0},
		{Node: &types.Node{ID: "second"}, Parent: "p", Sort: 0},
	}
	roots, _ := Rebuild(flat)
	require.Len(t, roots, 1)
	assert.Equal(t, "first", roots[0].Children[0].ID)
	assert.Equal(t, "second", roots[0].Children[1].ID)
}

func TestRebuildPromotesOrphans(t *testing.T) {
	flat := []*types.FlatNode{
		{Node: &types.Node{ID: "root"}},
		{Node: &types.Node{ID: "lost"}, Parent: "gone", Sort: 0},
		{Node: &types.Node{ID: "lostchild"}, Parent: "lost", Sort: 0},
	}
	roots, promoted := Rebuild(flat)

	assert.Equal(t, []string{"lost"}, promoted)
	require.Len(t, roots, 2)
	assert.Equal(t, "root", roots[0].ID)
	assert.Equal(t, "lost", roots[1].ID)
	assert.Equal(t, "lostchild", roots[1].Children[0].ID)
}

func TestRebuildBreaksCycles(t *testing.T) {
	flat := []*types.FlatNode{
		{Node: &types.Node{ID: "a"}, Parent: "b"},
		{Node: &types.Node{ID: "b"}, Parent: "a"},
	}
	roots, promoted := Rebuild(flat)

	assert.Equal(t, []string{"a"}, promoted)
	require.Len(t, roots, 1)
	assert.Equal(t, "a", roots[0].ID)
	assert.Equal(t, "b", roots[0].Children[0].ID)
}

func TestIDs(t *testing.T) {
	ids := IDs(forest(t, nested))
	assert.Len(t, ids, 7)
	assert.True(t, ids["a2y"])
}
