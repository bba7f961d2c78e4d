package forest

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData builds a regression problem where feature 0 carries all the
// signal and feature 1 is noise.
func syntheticData(n int, seed int64) (x [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(seed))
	x = make([][]float64, n)
	y = make([]float64, n)
	for i := range x {
		a, b := rng.Float64(), rng.Float64()
		x[i] = []float64{a, b}
		y[i] = 100 * a
	}
	return x, y
}

func testConfig() Config {
	return Config{Trees: 25, Seed: 42, MinLeaf: 1}
}

func TestFit_LearnsSignal(t *testing.T) {
	x, y := syntheticData(200, 1)
	f, err := Fit(context.Background(), x, y, []string{"signal", "noise"}, testConfig())
	require.NoError(t, err)

	// In-sample predictions should track y closely.
	for i := 0; i < 50; i++ {
		assert.InDelta(t, y[i], f.Predict(x[i]), 10.0)
	}
}

func TestFit_DeterministicForSeed(t *testing.T) {
	x, y := syntheticData(120, 2)
	predictors := []string{"signal", "noise"}

	a, err := Fit(context.Background(), x, y, predictors, testConfig())
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, predictors, testConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
	assert.Equal(t, a.Importance, b.Importance)

	probe := []float64{0.37, 0.91}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))
}

func TestFit_SeedChangesForest(t *testing.T) {
	x, y := syntheticData(120, 3)
	predictors := []string{"signal", "noise"}

	a, err := Fit(context.Background(), x, y, predictors, Config{Trees: 5, Seed: 1, MinLeaf: 1})
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, predictors, Config{Trees: 5, Seed: 99, MinLeaf: 1})
	require.NoError(t, err)

	assert.NotEqual(t, a.Trees, b.Trees)
}

func TestFit_InputValidation(t *testing.T) {
	x, y := syntheticData(10, 4)
	predictors := []string{"signal", "noise"}

	_, err := Fit(context.Background(), nil, nil, predictors, testConfig())
	assert.Error(t, err)

	_, err = Fit(context.Background(), x, y[:5], predictors, testConfig())
	assert.Error(t, err)

	_, err = Fit(context.Background(), x, y, predictors, Config{Trees: 0, Seed: 1})
	assert.Error(t, err)

	_, err = Fit(context.Background(), x, y, []string{"only_one"}, testConfig())
	assert.Error(t, err)
}

func TestImportances_ConcentrateOnSignal(t *testing.T) {
	x, y := syntheticData(200, 5)
	f, err := Fit(context.Background(), x, y, []string{"signal", "noise"}, testConfig())
	require.NoError(t, err)

	imp := f.Importances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], 0.9, "signal feature should dominate")
}

func TestPredict_ConstantTarget(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	y := []float64{42, 42, 42, 42}

	f, err := Fit(context.Background(), x, y, []string{"a", "b"}, Config{Trees: 3, Seed: 7, MinLeaf: 1})
	require.NoError(t, err)
	assert.InDelta(t, 42.0, f.Predict([]float64{2, 3}), 1e-9)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	x, y := syntheticData(80, 6)
	f, err := Fit(context.Background(), x, y, []string{"signal", "noise"}, testConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, f.Predictors, loaded.Predictors)
	assert.Equal(t, f.Config, loaded.Config)
	for i := 0; i < 20; i++ {
		assert.Equal(t, f.Predict(x[i]), loaded.Predict(x[i]))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestMinLeaf_BoundsLeafSize(t *testing.T) {
	x, y := syntheticData(100, 8)
	f, err := Fit(context.Background(), x, y, []string{"signal", "noise"}, Config{Trees: 1, Seed: 9, MinLeaf: 25})
	require.NoError(t, err)

	// With minLeaf 25 on 100 samples a tree can have at most 4 leaves.
	leaves := 0
	for _, n := range f.Trees[0].Nodes {
		if n.Feature < 0 {
			leaves++
		}
	}
	assert.LessOrEqual(t, leaves, 4)
	assert.GreaterOrEqual(t, leaves, 2)
}
