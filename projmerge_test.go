package projmerge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projmerge/projmerge"
)

const (
	ancestor = `{"name":"P","components":[{"id":"a","name":"Main","graph":{"roots":[
		{"id":"n1","type":"Rect","parameters":{"w":1}}],"connections":[]}}]}`
	ours = `{"name":"P","components":[{"id":"a","name":"Main","graph":{"roots":[
		{"id":"n1","type":"Rect","parameters":{"w":2}}],"connections":[]}}]}`
	theirs = `{"name":"P","components":[{"id":"a","name":"Main","graph":{"roots":[
		{"id":"n1","type":"Rect","parameters":{"w":1,"h":5}}],"connections":[]}}]}`
)

func TestMergeBytes(t *testing.T) {
	data, res, err := projmerge.MergeBytes([]byte(ancestor), []byte(ours), []byte(theirs), projmerge.MergeOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	p, err := projmerge.Parse(data)
	require.NoError(t, err)
	params := p.Components[0].Graph.Roots[0].Parameters
	assert.Equal(t, float64(2), params["w"])
	assert.Equal(t, float64(5), params["h"])
}

func TestMergeBytesMalformed(t *testing.T) {
	_, _, err := projmerge.MergeBytes([]byte("{"), []byte(ours), []byte(theirs), projmerge.MergeOptions{})
	require.NoError(t, err, "a malformed ancestor merges as empty")

	_, _, err = projmerge.MergeBytes([]byte(ancestor), []byte("{"), []byte(theirs), projmerge.MergeOptions{})
	assert.ErrorIs(t, err, projmerge.ErrMalformed)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	a, err := projmerge.Parse([]byte(ancestor))
	require.NoError(t, err)
	o, err := projmerge.Parse([]byte(ours))
	require.NoError(t, err)
	th, err := projmerge.Parse([]byte(theirs))
	require.NoError(t, err)

	before, err := projmerge.Marshal(o, "")
	require.NoError(t, err)
	projmerge.Merge(a, o, th, projmerge.MergeOptions{})
	after, err := projmerge.Marshal(o, "")
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestDiff(t *testing.T) {
	base, err := projmerge.Parse([]byte(ancestor))
	require.NoError(t, err)
	current, err := projmerge.Parse([]byte(ours))
	require.NoError(t, err)

	report := projmerge.Diff(base, current, projmerge.DiffOptions{})
	require.Len(t, report.Components.Changed, 1)
	assert.Equal(t, projmerge.AnnotationChanged, report.Components.Changed[0].Graph.Roots[0].Annotation)
}

func TestValidate(t *testing.T) {
	p, err := projmerge.Parse([]byte(`{"name":"P","components":[{"id":"a","name":"Main","graph":{"roots":[],"connections":[
		{"fromId":"x","fromProperty":"o","toId":"y","toProperty":"i"}]}}]}`))
	require.NoError(t, err)

	report := projmerge.Validate(p)
	require.False(t, report.OK())
	assert.Equal(t, 1, report.Fix())
	assert.Empty(t, p.Components[0].Graph.Connections)
}
