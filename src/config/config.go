package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"bismut-lsp/src/internal/constants"
	bismuterrors "bismut-lsp/src/internal/errors"
)

// Config contains the editor integration configuration for the Bismut compiler.
type Config struct {
	// CompilerPath is the path to the bismutc binary. Empty means resolve
	// the bare binary name through PATH.
	CompilerPath string `yaml:"compiler_path,omitempty"`

	// CompilerDir is forwarded to the analyzer as --compiler-dir when set.
	// Never inferred; empty means the flag is omitted entirely.
	CompilerDir string `yaml:"compiler_dir,omitempty"`

	AnalyzeOnSave     bool `yaml:"analyze_on_save"`
	AnalyzeOnType     bool `yaml:"analyze_on_type"`
	AnalyzeDebounceMs int  `yaml:"analyze_debounce_ms"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the config at path, falling back to defaults when
// the file does not exist. Parse and validation failures are still errors.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}
	return LoadConfig(path)
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.AnalyzeDebounceMs < 0 {
		return bismuterrors.NewValidationError("analyze_debounce_ms",
			fmt.Sprintf("must not be negative, got %d", config.AnalyzeDebounceMs))
	}
	if config.CompilerDir != "" {
		if info, err := os.Stat(config.CompilerDir); err != nil || !info.IsDir() {
			return bismuterrors.NewValidationError("compiler_dir",
				fmt.Sprintf("%q is not a directory", config.CompilerDir))
		}
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bismut-lsp", "config.yaml")
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		CompilerPath:      "",
		CompilerDir:       "",
		AnalyzeOnSave:     true,
		AnalyzeOnType:     true,
		AnalyzeDebounceMs: 800,
	}
}

// CompilerBinary returns the analyzer binary to invoke, falling back to the
// bare default name when no explicit path is configured.
func (c *Config) CompilerBinary() string {
	if c.CompilerPath != "" {
		return c.CompilerPath
	}
	return constants.DefaultCompilerBinary
}

// DebounceDelay returns the configured debounce as a duration, substituting
// the default when the configured value is zero.
func (c *Config) DebounceDelay() time.Duration {
	if c.AnalyzeDebounceMs <= 0 {
		return constants.DefaultDebounceDelay
	}
	return time.Duration(c.AnalyzeDebounceMs) * time.Millisecond
}
