package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "energycast.db", cfg.Store.Path)
	assert.InDelta(t, 1.5, cfg.Features.IQRMultiplier, 1e-9)
	assert.Equal(t, 100, cfg.Train.Trees)
	assert.Equal(t, 5, cfg.Train.Folds)
	assert.InDelta(t, 0.3, cfg.Train.TestSize, 1e-9)
	assert.Equal(t, int64(42), cfg.Train.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeConfig(t, dir, "train:\n  trees: 250\n  test_size: 0.2\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Train.Trees)
	assert.InDelta(t, 0.2, cfg.Train.TestSize, 1e-9)
	assert.Equal(t, 5, cfg.Train.Folds) // untouched default
}

func TestTrainConfig_Validate(t *testing.T) {
	valid := TrainConfig{Trees: 100, Folds: 5, TestSize: 0.3, Seed: 42, MinLeaf: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*TrainConfig)
	}{
		{"zero trees", func(c *TrainConfig) { c.Trees = 0 }},
		{"one fold", func(c *TrainConfig) { c.Folds = 1 }},
		{"test size zero", func(c *TrainConfig) { c.TestSize = 0 }},
		{"test size one", func(c *TrainConfig) { c.TestSize = 1 }},
		{"negative test size", func(c *TrainConfig) { c.TestSize = -0.1 }},
		{"zero min leaf", func(c *TrainConfig) { c.MinLeaf = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFeaturesConfig_Validate(t *testing.T) {
	assert.NoError(t, (&FeaturesConfig{IQRMultiplier: 1.5}).Validate())
	assert.Error(t, (&FeaturesConfig{IQRMultiplier: 0}).Validate())
	assert.Error(t, (&FeaturesConfig{IQRMultiplier: -1}).Validate())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}
