package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// DataConfig holds the locations of the precomputed analytics artifacts.
// Relative paths are resolved against DataDir.
type DataConfig struct {
	DataDir                string `json:"data_dir" yaml:"data_dir" validate:"required"`
	ChainsPath             string `json:"chains_path" yaml:"chains_path" validate:"required"`
	ChainsDatabasePath     string `json:"chains_database_path" yaml:"chains_database_path"`
	TweetsPerDayPath       string `json:"tweets_per_day_path" yaml:"tweets_per_day_path" validate:"required"`
	TweetsPerDayByUserPath string `json:"tweets_per_day_by_user_path" yaml:"tweets_per_day_by_user_path" validate:"required"`
	OverallWordCloudPath   string `json:"overall_wordcloud_path" yaml:"overall_wordcloud_path" validate:"required"`
	UserWordCloudPath      string `json:"user_wordcloud_path" yaml:"user_wordcloud_path" validate:"required"`
}

// GenerateConfig holds the defaults of the tweet generator.
type GenerateConfig struct {
	// DefaultLength is the word count used when none is requested.
	DefaultLength int `json:"default_length" yaml:"default_length" validate:"min=5,max=50"`

	// Temperature is passed to the generator; 1.0 is plain frequency-weighted selection.
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"gte=0"`

	// TopK limits each step to the K most frequent successors. 0 disables it.
	TopK int `json:"top_k" yaml:"top_k" validate:"gte=0"`
}

// DashboardConfig holds the defaults of the time series and word cloud views.
type DashboardConfig struct {
	DefaultStart  string `json:"default_start" yaml:"default_start" validate:"omitempty,datetime=2006-01-02"`
	DefaultEnd    string `json:"default_end" yaml:"default_end" validate:"omitempty,datetime=2006-01-02"`
	RollingWindow int    `json:"rolling_window" yaml:"rolling_window" validate:"min=1"`
	TopWords      int    `json:"top_words" yaml:"top_words" validate:"gte=0"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel  string           `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Data      *DataConfig      `json:"data_config" yaml:"data_config" validate:"required"`
	Generate  *GenerateConfig  `json:"generate_config" yaml:"generate_config" validate:"required"`
	Dashboard *DashboardConfig `json:"dashboard_config" yaml:"dashboard_config" validate:"required"`
}

// DefaultDataConfig creates a data configuration with the artifact names
// produced by the upstream analysis.
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		DataDir:                "./data",
		ChainsPath:             "markov_chains.json",
		ChainsDatabasePath:     "",
		TweetsPerDayPath:       "tweets_per_day.csv",
		TweetsPerDayByUserPath: "tweets_per_day_by_user.csv",
		OverallWordCloudPath:   "overall_wordcloud.txt",
		UserWordCloudPath:      "user_wordcloud_text.json",
	}
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Data:     DefaultDataConfig(),
		Generate: &GenerateConfig{
			DefaultLength: 20,
			Temperature:   1.0,
			TopK:          0,
		},
		Dashboard: &DashboardConfig{
			DefaultStart:  "2023-12-31",
			DefaultEnd:    "2024-12-23",
			RollingWindow: 7,
			TopWords:      50,
		},
	}
}

// Resolve returns p joined to DataDir unless p is empty or absolute.
func (c *DataConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// LoadConfig reads the configuration from a JSON or YAML file at the given
// path, chosen by extension. If the file doesn't exist, it creates one with
// default values. Environment overrides are applied before validation.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the tool can still run with defaults.
				logger.Warn("Failed to write default config file", "path", path, "error", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if isYAML(path) {
		if err = yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(config)

	if err = validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides config values from HILLWATCH_* environment variables.
func applyEnv(config *Config) {
	if dir := os.Getenv("HILLWATCH_DATA_DIR"); dir != "" && config.Data != nil {
		config.Data.DataDir = dir
	}
	if db := os.Getenv("HILLWATCH_CHAINS_DB"); db != "" && config.Data != nil {
		config.Data.ChainsDatabasePath = db
	}
	if level := os.Getenv("HILLWATCH_LOG_LEVEL"); level != "" {
		config.LogLevel = strings.ToLower(level)
	}
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if config.Dashboard.DefaultStart != "" && config.Dashboard.DefaultEnd != "" &&
		config.Dashboard.DefaultStart > config.Dashboard.DefaultEnd {
		return fmt.Errorf("invalid configuration: default_start %s is after default_end %s",
			config.Dashboard.DefaultStart, config.Dashboard.DefaultEnd)
	}
	return nil
}
