package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"bismut-lsp/src/config"
	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/constants"
	bismuterrors "bismut-lsp/src/internal/errors"
)

// Client shells out to the Bismut compiler's analyze subcommand.
//
// All failure modes (spawn error, timeout, empty or unparsable output) are
// soft: Analyze returns nil and logs enough context to diagnose, so callers
// keep serving the previous snapshot instead of crashing or flickering.
type Client struct {
	cfg    *config.Config
	logger *common.SafeLogger
}

// NewClient creates an analyzer client for the given configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: common.AnalyzerLogger,
	}
}

// rawPrefix bounds how much analyzer output gets logged on parse failures.
const rawPrefix = 200

// Analyze runs `bismutc analyze <filePath>` and parses its JSON output.
// Returns nil on any failure; the previous cached result stays authoritative.
func (c *Client) Analyze(ctx context.Context, filePath string) *AnalysisResult {
	result, err := c.AnalyzeErr(ctx, filePath)
	if err != nil {
		if bismuterrors.IsTimeoutError(err) {
			c.logger.Error("%v, process killed", err)
		} else {
			c.logger.Error("analysis of %s failed: %v", filePath, err)
		}
		return nil
	}
	return result
}

// AnalyzeErr is Analyze with a typed failure: a TimeoutError on expiry, a
// ProcessError for spawn, empty-output, and unparsable-output failures.
func (c *Client) AnalyzeErr(ctx context.Context, filePath string) (*AnalysisResult, error) {
	args := []string{"analyze", filePath}
	if c.cfg.CompilerDir != "" {
		args = append(args, "--compiler-dir", c.cfg.CompilerDir)
	}

	runCtx, cancel := context.WithTimeout(ctx, constants.AnalyzeTimeout)
	defer cancel()

	binary := c.cfg.CompilerBinary()
	cmd := exec.CommandContext(runCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// The analyzer may emit warnings on stderr even on success.
	if stderr.Len() > 0 {
		c.logger.Debug("analyzer stderr for %s: %s", filePath, truncate(stderr.String(), rawPrefix))
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, bismuterrors.NewTimeoutError("analyze "+filePath, constants.AnalyzeTimeout, runCtx.Err())
	}

	out := stdout.Bytes()
	if err != nil && len(out) == 0 {
		return nil, bismuterrors.NewProcessError(binary, "spawn", err)
	}

	if len(bytes.TrimSpace(out)) == 0 {
		return nil, bismuterrors.NewProcessError(binary, "output", fmt.Errorf("no output for %s", filePath))
	}

	result, parseErr := ParseResult(out)
	if parseErr != nil {
		return nil, bismuterrors.NewProcessError(binary, "output",
			fmt.Errorf("unparsable output for %s: %w (raw: %s)", filePath, parseErr, truncate(string(out), rawPrefix)))
	}

	if result.File == "" {
		result.File = filePath
	}

	c.logger.Debug("analyzed %s: %d symbols, %d diagnostics (errors=%d, warnings=%d)",
		filePath, len(result.Symbols), len(result.Diagnostics), result.ErrorCount, result.WarningCount)
	return result, nil
}

// CheckBinary probes the configured compiler with a help invocation.
// Used at activation and on configuration change, never per keystroke.
func (c *Client) CheckBinary() bool {
	ctx, cancel := common.CreateContext(constants.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.CompilerBinary(), "--help")
	if err := cmd.Run(); err != nil {
		c.logger.Warn("compiler binary check failed for %q: %v", c.cfg.CompilerBinary(), err)
		return false
	}
	return true
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
