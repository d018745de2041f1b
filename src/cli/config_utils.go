package cli

import (
	"os"

	"bismut-lsp/src/config"
	"bismut-lsp/src/internal/common"
)

// LoadConfigWithFallback loads configuration with automatic fallback to
// defaults; CLI entry points never fail on a missing or broken config.
func LoadConfigWithFallback(configPath string) *config.Config {
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			common.CLILogger.Warn("Failed to load config from %s, using defaults: %v", configPath, err)
			return config.GetDefaultConfig()
		}
		return cfg
	}

	defaultConfigPath := config.GetDefaultConfigPath()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.LoadConfig(defaultConfigPath)
		if err != nil {
			common.CLILogger.Warn("Failed to load default config from %s, using defaults: %v", defaultConfigPath, err)
			return config.GetDefaultConfig()
		}
		return cfg
	}

	return config.GetDefaultConfig()
}
