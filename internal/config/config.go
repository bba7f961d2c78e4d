// Package config loads application configuration and wires the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Train    TrainConfig    `yaml:"train" mapstructure:"train"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-ledger database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FeaturesConfig configures the feature builder.
type FeaturesConfig struct {
	// IQRMultiplier scales the interquartile range when computing the
	// outlier bounds [Q1 - k*IQR, Q3 + k*IQR].
	IQRMultiplier float64 `yaml:"iqr_multiplier" mapstructure:"iqr_multiplier"`
}

// TrainConfig configures the model trainer.
type TrainConfig struct {
	Trees    int     `yaml:"trees" mapstructure:"trees"`
	Folds    int     `yaml:"folds" mapstructure:"folds"`
	TestSize float64 `yaml:"test_size" mapstructure:"test_size"`
	Seed     int64   `yaml:"seed" mapstructure:"seed"`
	MinLeaf  int     `yaml:"min_leaf" mapstructure:"min_leaf"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENERGYCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "energycast.db")
	v.SetDefault("features.iqr_multiplier", 1.5)
	v.SetDefault("train.trees", 100)
	v.SetDefault("train.folds", 5)
	v.SetDefault("train.test_size", 0.3)
	v.SetDefault("train.seed", 42)
	v.SetDefault("train.min_leaf", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate rejects out-of-range trainer parameters before any fitting work.
func (c *TrainConfig) Validate() error {
	if c.Trees < 1 {
		return eris.Errorf("config: train.trees must be >= 1, got %d", c.Trees)
	}
	if c.Folds < 2 {
		return eris.Errorf("config: train.folds must be >= 2, got %d", c.Folds)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return eris.Errorf("config: train.test_size must be in (0,1), got %g", c.TestSize)
	}
	if c.MinLeaf < 1 {
		return eris.Errorf("config: train.min_leaf must be >= 1, got %d", c.MinLeaf)
	}
	return nil
}

// Validate rejects a non-positive IQR multiplier.
func (c *FeaturesConfig) Validate() error {
	if c.IQRMultiplier <= 0 {
		return eris.Errorf("config: features.iqr_multiplier must be > 0, got %g", c.IQRMultiplier)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
