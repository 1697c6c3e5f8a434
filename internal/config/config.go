// Package config loads the optional YAML configuration file for the batch
// runner. Flags and environment variables take precedence over file values;
// the file mainly serves checked-in per-project defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the harness configuration file.
type Config struct {
	// TestDir is the directory scanned for *.json test cases.
	TestDir string `yaml:"test_dir"`

	// Endpoint and APIKey select the chatbot backend under test.
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`

	// EvalModel is the run-wide evaluation model: a model name string or a
	// structured value carrying a "model" key.
	EvalModel any `yaml:"eval_model"`

	// RunAsync toggles concurrent metric execution inside the engine. Nil
	// means not configured.
	RunAsync *bool `yaml:"run_async"`

	// MaxConcurrent caps concurrent async metrics per case.
	MaxConcurrent int `yaml:"max_concurrent"`

	// TimeoutSeconds bounds each chatbot request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Output is where the run report is written.
	Output string `yaml:"output"`
}

// Load reads path, expands ${VAR} environment references and decodes the
// YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
