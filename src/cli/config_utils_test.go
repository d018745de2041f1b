package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWithFallbackExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compiler_path: /opt/bismut/bin/bismutc\nanalyze_debounce_ms: 250\n"), 0o644))

	cfg := LoadConfigWithFallback(path)
	assert.Equal(t, "/opt/bismut/bin/bismutc", cfg.CompilerPath)
	assert.Equal(t, 250, cfg.AnalyzeDebounceMs)
}

func TestLoadConfigWithFallbackBrokenFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml"), 0o644))

	cfg := LoadConfigWithFallback(path)
	assert.True(t, cfg.AnalyzeOnSave)
	assert.True(t, cfg.AnalyzeOnType)
	assert.Equal(t, 800, cfg.AnalyzeDebounceMs)
}

func TestLoadConfigWithFallbackMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfigWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, 800, cfg.AnalyzeDebounceMs)
}
