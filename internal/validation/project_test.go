package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projmerge/projmerge/internal/types"
)

func project(t *testing.T, s string) *types.Project {
	t.Helper()
	var p types.Project
	require.NoError(t, json.Unmarshal([]byte(s), &p))
	return &p
}

func TestValidProject(t *testing.T) {
	p := project(t, `{"name":"P","components":[{"id":"c1","name":"Main","graph":{
		"roots":[{"id":"a","type":"Group","x":0,"y":10,"parameters":{},"children":[{"id":"b","type":"Text","parameters":{"text":"hi"}}]}],
		"connections":[{"fromId":"a","fromProperty":"out","toId":"b","toProperty":"in"}]}}]}`)

	r := Project(p)
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())
}

func TestDanglingConnectionFix(t *testing.T) {
	p := project(t, `{"name":"P","components":[{"name":"Main","graph":{
		"roots":[{"id":"a","type":"Text","parameters":{}}],
		"connections":[
			{"fromId":"a","fromProperty":"out","toId":"gone","toProperty":"in"},
			{"fromId":"a","fromProperty":"out","toId":"a","toProperty":"in"},
			{"fromId":"ghost","fromProperty":"out","toId":"a","toProperty":"in"}
		]}}]}`)

	r := Project(p)
	require.Len(t, r.Issues, 2)
	for _, issue := range r.Issues {
		assert.True(t, issue.Fixable())
		assert.Contains(t, issue.Error(), "dangling connection")
	}

	assert.Equal(t, 2, r.Fix())
	conns := p.Components[0].Graph.Connections
	require.Len(t, conns, 1)
	assert.Equal(t, "a", conns[0].ToID)
	assert.NoError(t, r.Err())

	assert.True(t, Project(p).OK(), "no dangling connections remain")
	assert.Equal(t, 0, r.Fix(), "fixes run once")
}

func TestNodeShape(t *testing.T) {
	p := project(t, `{"name":"P","components":[{"name":"Main","graph":{"roots":[
		{"id":"a","type":"Text"},
		{"id":"","type":"Text","parameters":{}},
		{"id":"c","parameters":{}},
		{"id":"d","type":"Text","x":"left","parameters":{}}
	],"connections":[]}}]}`)

	r := Project(p)
	paths := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		paths = append(paths, issue.Path)
	}
	assert.ElementsMatch(t, []string{
		"nodes[a].parameters",
		"nodes[].id",
		"nodes[c].type",
		"nodes[d].x",
	}, paths)

	assert.Equal(t, 1, r.Fix())
	assert.NotNil(t, p.Components[0].Graph.Roots[0].Parameters)

	err := r.Err()
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)
	assert.Len(t, r.Remaining(), 3)
}

func TestComponentShape(t *testing.T) {
	p := &types.Project{Components: []*types.Component{
		{ID: "c1"},
		nil,
	}}

	r := Project(p)
	var paths []string
	for _, issue := range r.Issues {
		paths = append(paths, issue.Path)
	}
	assert.ElementsMatch(t, []string{"name", "graph", "components[1]"}, paths)

	r.Fix()
	assert.NotNil(t, p.Components[0].Graph)
	assert.Len(t, r.Remaining(), 2)
}

func TestDuplicateNodeIDs(t *testing.T) {
	p := project(t, `{"name":"P","components":[{"name":"Main","graph":{"roots":[
		{"id":"a","type":"Group","parameters":{},"children":[{"id":"a","type":"Text","parameters":{}}]}
	],"connections":[]}}]}`)

	r := Project(p)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].Error(), "duplicate node id")
	assert.False(t, r.Issues[0].Fixable())
}
