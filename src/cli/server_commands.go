package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/constants"
	bismuterrors "bismut-lsp/src/internal/errors"
	"bismut-lsp/src/server"
)

// RunServer starts the language server on stdin/stdout and blocks for the
// whole editor session.
func RunServer(configPath string) error {
	cfg := LoadConfigWithFallback(configPath)

	m := server.NewManager(cfg)
	common.CLILogger.Info("Bismut LSP started (compiler: %s)", cfg.CompilerBinary())

	if err := m.Serve(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("session ended with error: %w", err)
	}
	common.CLILogger.Info("session closed")
	return nil
}

// CheckSetup verifies the configuration and the compiler binary.
func CheckSetup(configPath string) error {
	cfg := LoadConfigWithFallback(configPath)

	common.CLILogger.Info("compiler binary: %s", cfg.CompilerBinary())
	if cfg.CompilerDir != "" {
		common.CLILogger.Info("compiler dir:   %s", cfg.CompilerDir)
	}
	common.CLILogger.Info("analyze on save: %v, on type: %v (debounce %v)",
		cfg.AnalyzeOnSave, cfg.AnalyzeOnType, cfg.DebounceDelay())

	client := analyzer.NewClient(cfg)
	if !client.CheckBinary() {
		return fmt.Errorf("compiler binary %q is not runnable", cfg.CompilerBinary())
	}
	common.CLILogger.Info("compiler check passed")
	return nil
}

// AnalyzeFile runs a single analysis pass and prints the outcome.
func AnalyzeFile(configPath, filePath string, asJSON bool) error {
	cfg := LoadConfigWithFallback(configPath)

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	if !common.FileExists(absPath) {
		return fmt.Errorf("cannot analyze %s: file does not exist", filePath)
	}

	ctx, cancel := common.CreateContext(constants.AnalyzeTimeout)
	defer cancel()

	client := analyzer.NewClient(cfg)
	result, err := client.AnalyzeErr(ctx, absPath)
	if err != nil {
		if bismuterrors.IsTimeoutError(err) {
			return fmt.Errorf("analysis of %s timed out: %w", filePath, err)
		}
		return fmt.Errorf("analysis of %s failed: %w", filePath, err)
	}

	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	common.CLILogger.Info("%s: %d errors, %d warnings, %d symbols",
		result.File, result.ErrorCount, result.WarningCount, len(result.Symbols))
	for _, diag := range result.Diagnostics {
		common.CLILogger.Info("  %s:%d:%d %s: %s", diag.File, diag.Line, diag.Col, diag.Severity, diag.Message)
	}
	for _, sym := range result.Symbols {
		common.CLILogger.Info("  %s %s at %d:%d", sym.Kind, sym.Name, sym.Line, sym.Col)
	}
	if !result.Success {
		return fmt.Errorf("analysis reported errors")
	}
	return nil
}
