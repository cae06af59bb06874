package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/projmerge/projmerge/internal/types"
)

func testProject(t *testing.T, jsonStr string) *types.Project {
	t.Helper()
	var p types.Project
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &p))
	return &p
}

func testComponent(t *testing.T, jsonStr string) *types.Component {
	t.Helper()
	var c types.Component
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &c))
	return &c
}

func componentNames(p *types.Project) []string {
	names := make([]string, len(p.Components))
	for i, c := range p.Components {
		names[i] = c.Name
	}
	return names
}

const emptyGraph = `{"roots":[],"connections":[]}`

func TestProjectsIndependentAdditions(t *testing.T) {
	ancestor := testProject(t, `{"name":"P","components":[{"id":"a","name":"A","graph":`+emptyGraph+`}]}`)
	ours := testProject(t, `{"name":"P","components":[{"id":"a","name":"A","graph":`+emptyGraph+`},{"id":"b","name":"B","graph":`+emptyGraph+`}]}`)
	theirs := testProject(t, `{"name":"P","components":[{"id":"a","name":"A","graph":`+emptyGraph+`},{"id":"c","name":"C","graph":`+emptyGraph+`}]}`)

	res := Projects(ancestor, ours, theirs, Options{})
	assert.Equal(t, []string{"A", "B", "C"}, componentNames(res.Project))
	assert.False(t, res.HasConflicts())
	assert.True(t, res.Validation.OK())
}

func TestProjectsParameterConflict(t *testing.T) {
	doc := func(color string) string {
		return `{"name":"P","components":[{"id":"c","name":"Main","graph":{"roots":[
			{"id":"n1","type":"Rect","parameters":{"color":"` + color + `"}}],"connections":[]}}]}`
	}
	res := Projects(testProject(t, doc("red")), testProject(t, doc("blue")), testProject(t, doc("green")), Options{})

	node := res.Project.Components[0].Graph.Roots[0]
	assert.Equal(t, "blue", node.Parameters["color"])
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictSite{
		Component: "Main",
		NodeID:    "n1",
		Conflicts: types.Conflicts{types.ParameterConflict{Name: "color", Ours: "blue", Theirs: "green"}},
	}, res.Conflicts[0])
	assert.Equal(t, 1, CountConflicts(res.Conflicts))
	assert.Equal(t, map[types.ConflictKind]int{types.ConflictParameter: 1}, CountByKind(res.Conflicts))
}

func TestComponentRename(t *testing.T) {
	m := New(Options{})
	ancestor := testComponent(t, `{"id":"c","name":"Foo","graph":`+emptyGraph+`}`)
	ours := testComponent(t, `{"id":"c","name":"Foo","graph":`+emptyGraph+`}`)
	theirs := testComponent(t, `{"id":"c","name":"Bar","graph":`+emptyGraph+`}`)

	assert.Equal(t, "Bar", m.Project(
		&types.Project{Components: []*types.Component{ancestor}},
		&types.Project{Components: []*types.Component{ours}},
		&types.Project{Components: []*types.Component{theirs}},
	).Components[0].Name)

	ours.Graph.Roots = []*types.Node{{ID: "n", Type: types.TypeName("T"), Parameters: map[string]any{}}}
	got := m.Component(ancestor, ours, theirs)
	assert.Equal(t, "Bar", got.Name, "rename applies when ours kept the old name")

	ours.Name = "Baz"
	assert.Equal(t, "Baz", m.Component(ancestor, ours, theirs).Name, "both renamed keeps ours")
}

func TestComponentTombstone(t *testing.T) {
	m := New(Options{})
	ancestor := testComponent(t, `{"id":"c","name":"C","graph":{"roots":[{"id":"n","type":"T","x":1,"parameters":{}}],"connections":[]}}`)
	moved := testComponent(t, `{"id":"c","name":"C","graph":{"roots":[{"id":"n","type":"T","x":2,"parameters":{}}],"connections":[]}}`)

	assert.Nil(t, m.Component(ancestor, nil, ancestor.Clone()))
	assert.NotNil(t, m.Component(ancestor, nil, moved), "components compare exactly, position included")
	assert.NotNil(t, m.Component(ancestor, moved, nil))
}

func TestComponentMetadata(t *testing.T) {
	m := New(Options{})
	ancestor := testComponent(t, `{"id":"c","name":"C","graph":`+emptyGraph+`,"metadata":{"canvas":{"zoom":1,"x":0},"tags":["a"]}}`)
	ours := testComponent(t, `{"id":"c","name":"C","graph":`+emptyGraph+`,"metadata":{"canvas":{"zoom":2,"x":0},"tags":["a"]}}`)
	theirs := testComponent(t, `{"id":"c","name":"C","graph":`+emptyGraph+`,"metadata":{"canvas":{"zoom":1,"x":5},"tags":["b"],"new":true}}`)

	got := m.Component(ancestor, ours, theirs)
	assert.Equal(t, map[string]any{
		"canvas": map[string]any{"zoom": 2.0, "x": 5.0},
		"tags":   []any{"b"},
		"new":    true,
	}, got.Metadata)
}

func TestGraphConnectionsUnion(t *testing.T) {
	m := New(Options{})
	conn := func(from, to string) *types.Connection {
		return &types.Connection{FromID: from, FromProperty: "out", ToID: to, ToProperty: "in"}
	}
	ancestor := []*types.Connection{conn("a", "b"), conn("b", "c")}
	ours := []*types.Connection{conn("a", "b"), conn("x", "y")}
	theirs := []*types.Connection{conn("a", "b"), conn("b", "c"), conn("p", "q")}

	got := m.Connections(ancestor, ours, theirs)
	keys := make([]string, len(got))
	for i, c := range got {
		keys[i] = c.Key().String()
	}
	assert.Equal(t, []string{"a.out->b.in", "x.out->y.in", "p.out->q.in"}, keys)
	assert.NotSame(t, ours[0], got[0])
}

func TestGraphComments(t *testing.T) {
	m := New(Options{})
	ancestor := []*types.Comment{{ID: "c1", Text: "hello", X: 1}, {ID: "c2", Text: "bye"}}
	ours := []*types.Comment{{ID: "c1", Text: "hello there", X: 1}, {ID: "c2", Text: "bye"}}
	theirs := []*types.Comment{{ID: "c1", Text: "hello", X: 300}, {ID: "c3", Text: "new"}}

	got := m.Comments(ancestor, ours, theirs)
	require.Len(t, got, 2)
	assert.Equal(t, "hello there", got[0].Text)
	assert.Equal(t, 1.0, got[0].X, "moves alone are not edits")
	assert.Equal(t, "c3", got[1].ID)
}

func TestRootsMergeAcrossTree(t *testing.T) {
	m := New(Options{})
	roots := func(s string) []*types.Node {
		var out []*types.Node
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		return out
	}
	ancestor := roots(`[{"id":"g","type":"Group","parameters":{},"children":[
		{"id":"a","type":"Text","parameters":{"text":"a"}},
		{"id":"b","type":"Text","parameters":{"text":"b"}}]}]`)
	// ours edits a and appends c under g
	ours := roots(`[{"id":"g","type":"Group","parameters":{},"children":[
		{"id":"a","type":"Text","parameters":{"text":"A"}},
		{"id":"b","type":"Text","parameters":{"text":"b"}},
		{"id":"c","type":"Text","parameters":{"text":"c"}}]}]`)
	// theirs edits b and adds a new root
	theirs := roots(`[{"id":"g","type":"Group","parameters":{},"children":[
		{"id":"a","type":"Text","parameters":{"text":"a"}},
		{"id":"b","type":"Text","parameters":{"text":"B"}}]},
		{"id":"r","type":"Text","parameters":{}}]`)

	got := m.Roots("Main", ancestor, ours, theirs)
	require.Len(t, got, 2)
	assert.Equal(t, "g", got[0].ID)
	assert.Equal(t, "r", got[1].ID)
	require.Len(t, got[0].Children, 3)
	assert.Equal(t, "A", got[0].Children[0].Parameters["text"])
	assert.Equal(t, "B", got[0].Children[1].Parameters["text"])
	assert.Equal(t, "c", got[0].Children[2].ID)
	assert.Empty(t, m.Promoted())
}

func TestRootsPromoteOrphans(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := New(Options{Logger: zap.New(core)})
	roots := func(s string) []*types.Node {
		var out []*types.Node
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		return out
	}
	ancestor := roots(`[{"id":"g","type":"Group","parameters":{},"children":[{"id":"a","type":"Text","parameters":{"text":"a"}}]}]`)
	// ours deletes the group and its child
	ours := roots(`[]`)
	// theirs edits the child
	theirs := roots(`[{"id":"g","type":"Group","parameters":{},"children":[{"id":"a","type":"Text","parameters":{"text":"edited"}}]}]`)

	got := m.Roots("Main", ancestor, ours, theirs)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "edited", got[0].Parameters["text"])
	assert.Equal(t, []PromotedNode{{Component: "Main", NodeID: "a"}}, m.Promoted())
	assert.Equal(t, 1, logs.FilterMessage("node promoted to root").Len())
	assert.Equal(t, 1, logs.FilterMessage("node resurrected").Len())
}

func TestProjectsRepairsDanglingConnections(t *testing.T) {
	ancestor := testProject(t, `{"name":"P","components":[{"id":"c","name":"Main","graph":{
		"roots":[{"id":"a","type":"T","parameters":{}},{"id":"b","type":"T","parameters":{}}],
		"connections":[]}}]}`)
	// ours deletes b
	ours := testProject(t, `{"name":"P","components":[{"id":"c","name":"Main","graph":{
		"roots":[{"id":"a","type":"T","parameters":{}}],
		"connections":[]}}]}`)
	// theirs connects a to b without touching b
	theirs := testProject(t, `{"name":"P","components":[{"id":"c","name":"Main","graph":{
		"roots":[{"id":"a","type":"T","parameters":{}},{"id":"b","type":"T","parameters":{}}],
		"connections":[{"fromId":"a","fromProperty":"out","toId":"b","toProperty":"in"}]}}]}`)

	res := Projects(ancestor, ours, theirs, Options{})
	g := res.Project.Components[0].Graph
	require.Len(t, g.Roots, 1)
	assert.Empty(t, g.Connections)
	assert.False(t, res.Validation.OK(), "the dangling connection was found")
	assert.NoError(t, res.Validation.Err(), "and repaired")
	assert.Len(t, theirs.Components[0].Graph.Connections, 1, "inputs untouched")
}

func TestProjectsPlainFieldsAndVariants(t *testing.T) {
	ancestor := testProject(t, `{"name":"P","runtimeVersion":"v1","settings":{"a":1,"b":1},
		"metadata":{"styles":{"colors":{"red":"#f00"}}},"components":[],
		"variants":[{"name":"Primary","typename":"Button","parameters":{"x":1}}]}`)
	ours := testProject(t, `{"name":"P","runtimeVersion":"v1","settings":{"a":2,"b":1},
		"metadata":{"styles":{"colors":{"red":"#f00","blue":"#00f"}}},"components":[],
		"variants":[]}`)
	theirs := testProject(t, `{"name":"P2","runtimeVersion":"v2","settings":{"a":1,"b":3},
		"metadata":{"styles":{"colors":{"red":"#e00"}}},"components":[],
		"variants":[{"name":"Primary","typename":"Button","parameters":{"x":1}}]}`)

	res := Projects(ancestor, ours, theirs, Options{})
	p := res.Project
	assert.Equal(t, "P2", p.Name)
	assert.Equal(t, "v2", p.Extra["runtimeVersion"])
	assert.Equal(t, map[string]any{"a": 2.0, "b": 3.0}, p.Settings)
	assert.Equal(t, map[string]any{"red": "#e00", "blue": "#00f"}, p.Metadata["styles"].(map[string]any)["colors"])
	assert.Nil(t, p.Variants, "empty variant list is omitted")

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"variants"`)
}

func TestProjectsNilAncestor(t *testing.T) {
	ours := testProject(t, `{"name":"P","components":[{"id":"a","name":"A","graph":`+emptyGraph+`}]}`)
	theirs := testProject(t, `{"name":"P","components":[{"id":"b","name":"B","graph":`+emptyGraph+`}]}`)

	res := Projects(nil, ours, theirs, Options{})
	assert.Equal(t, []string{"A", "B"}, componentNames(res.Project))
}

func TestProjectsConvergence(t *testing.T) {
	doc := `{"name":"P","components":[{"id":"c","name":"Main","graph":{"roots":[
		{"id":"n","type":"T","parameters":{"p":1},"children":[{"id":"k","type":"T","parameters":{}}]}],
		"connections":[{"fromId":"n","fromProperty":"o","toId":"k","toProperty":"i"}]}}]}`
	ours := testProject(t, doc)

	res := Projects(testProject(t, `{"name":"P","components":[]}`), ours, testProject(t, doc), Options{})
	assert.True(t, types.DeepEqual(ours, res.Project))
	assert.NotSame(t, ours.Components[0], res.Project.Components[0])
}

func TestComponentKeysByIDThenName(t *testing.T) {
	ancestor := testProject(t, `{"name":"P","components":[{"name":"Legacy","graph":`+emptyGraph+`}]}`)
	ours := testProject(t, `{"name":"P","components":[{"name":"Legacy","graph":`+emptyGraph+`},{"id":"Legacy","name":"Other","graph":`+emptyGraph+`}]}`)
	theirs := testProject(t, `{"name":"P","components":[{"name":"Legacy","graph":`+emptyGraph+`}]}`)

	res := Projects(ancestor, ours, theirs, Options{})
	assert.Equal(t, []string{"Legacy", "Other"}, componentNames(res.Project), "an id never collides with a name")
}
