package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projmerge/projmerge/internal/codec"
)

const danglingDoc = `{"name":"P","components":[{"id":"a","name":"Main","graph":{"roots":[
	{"id":"n1","type":"Rect","parameters":{}}],"connections":[
	{"fromId":"n1","fromProperty":"out","toId":"gone","toProperty":"in"}]}}]}`

func TestRunValidateValid(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/v/p.json", []byte(mergeDoc("red")), 0o644))

	var out bytes.Buffer
	report, err := runValidate("/v/p.json", false, &out)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Contains(t, out.String(), "is valid")
}

func TestRunValidateReportsWithoutFix(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/v/p.json", []byte(danglingDoc), 0o644))

	var out bytes.Buffer
	report, err := runValidate("/v/p.json", false, &out)
	require.NoError(t, err)
	assert.Len(t, report.Remaining(), 1)
	assert.Contains(t, out.String(), "fixable with --fix")

	data, err := afero.ReadFile(fs, "/v/p.json")
	require.NoError(t, err)
	assert.Equal(t, danglingDoc, string(data), "file untouched without --fix")
}

func TestRunValidateFix(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/v/p.json", []byte(danglingDoc), 0o644))

	var out bytes.Buffer
	report, err := runValidate("/v/p.json", true, &out)
	require.NoError(t, err)
	assert.Empty(t, report.Remaining())
	assert.Contains(t, out.String(), "1 issue(s), 1 fixed, 0 remaining")

	data, err := afero.ReadFile(fs, "/v/p.json")
	require.NoError(t, err)
	p, err := codec.Parse(data)
	require.NoError(t, err)
	assert.Empty(t, p.Components[0].Graph.Connections)
}

func TestRunValidateMalformed(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/v/p.json", []byte("nope"), 0o644))

	_, err := runValidate("/v/p.json", false, &bytes.Buffer{})
	assert.ErrorIs(t, err, codec.ErrMalformed)
}

func TestRunValidateQuiet(t *testing.T) {
	fs := useMemFs(t)
	useQuiet(t)
	require.NoError(t, afero.WriteFile(fs, "/v/ok.json", []byte(mergeDoc("red")), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/v/bad.json", []byte(danglingDoc), 0o644))

	var out bytes.Buffer
	_, err := runValidate("/v/ok.json", false, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	report, err := runValidate("/v/bad.json", false, &out)
	require.NoError(t, err)
	assert.Len(t, report.Remaining(), 1)
	assert.Contains(t, out.String(), "fixable with --fix", "problems are printed even when quiet")
	assert.NotContains(t, out.String(), "remaining")
}
