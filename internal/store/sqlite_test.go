package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/energycast/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStartFinishRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.StartRun(ctx, "merge")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	drops := map[string]int{"missing_weather": 3}
	require.NoError(t, s.FinishRun(ctx, run, 100, 97, drops, "merged.csv"))
	assert.Equal(t, model.RunStatusSucceeded, run.Status)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "merge", got.Stage)
	assert.Equal(t, model.RunStatusSucceeded, got.Status)
	assert.Equal(t, 100, got.RowsIn)
	assert.Equal(t, 97, got.RowsOut)
	assert.Equal(t, drops, got.Drops)
	assert.Equal(t, "merged.csv", got.Artifact)
	require.NotNil(t, got.FinishedAt)
}

func TestFailRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.StartRun(ctx, "train")
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run, eris.New("target column is entirely null")))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "entirely null")
	require.NotNil(t, runs[0].FinishedAt)
}

func TestListRuns_Limit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.StartRun(ctx, "features")
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
