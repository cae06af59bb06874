package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projmerge/projmerge/internal/diff"
	"github.com/projmerge/projmerge/internal/merge"
	"github.com/projmerge/projmerge/internal/types"
)

func TestTrackMergeDisabledPassesThrough(t *testing.T) {
	t.Setenv("PM_OTEL_ENABLED", "")
	want := &merge.Result{Project: &types.Project{Name: "P"}}
	got, err := TrackMerge(context.Background(), func(context.Context) (*merge.Result, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestTrackMergeEnabledKeepsResultAndError(t *testing.T) {
	t.Setenv("PM_OTEL_ENABLED", "true")
	boom := errors.New("boom")

	res := merge.Projects(nil, &types.Project{Name: "A"}, &types.Project{Name: "B"}, merge.Options{})
	got, err := TrackMerge(context.Background(), func(ctx context.Context) (*merge.Result, error) {
		return res, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Same(t, res, got)
}

func TestTrackDiffEnabled(t *testing.T) {
	t.Setenv("PM_OTEL_ENABLED", "true")
	got, err := TrackDiff(context.Background(), func(context.Context) (*diff.Report, error) {
		return diff.Projects(&types.Project{}, &types.Project{Settings: map[string]any{"a": 1.0}}, diff.Options{}), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Summary().Settings)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
