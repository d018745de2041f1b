package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"bismut-lsp/src/config"
	bismuterrors "bismut-lsp/src/internal/errors"
)

// writeStubCompiler drops an executable shell script that stands in for
// bismutc and returns its path.
func writeStubCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "bismutc")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func clientWithBinary(path string) *Client {
	cfg := config.GetDefaultConfig()
	cfg.CompilerPath = path
	return NewClient(cfg)
}

func TestAnalyzeParsesCompilerOutput(t *testing.T) {
	stub := writeStubCompiler(t, `echo '{"success":true,"file":"/work/main.bi","error_count":0,"warning_count":0,"diagnostics":[],"symbols":[{"name":"main","kind":"function","file":"/work/main.bi","line":1,"col":1}]}'`)
	c := clientWithBinary(stub)

	result := c.Analyze(context.Background(), "/work/main.bi")
	if result == nil {
		t.Fatal("expected a parsed result")
	}
	if !result.Success || len(result.Symbols) != 1 || result.Symbols[0].Name != "main" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAnalyzeFillsMissingFile(t *testing.T) {
	stub := writeStubCompiler(t, `echo '{"success":true,"error_count":0,"warning_count":0,"diagnostics":[],"symbols":[]}'`)
	c := clientWithBinary(stub)

	result := c.Analyze(context.Background(), "/work/other.bi")
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.File != "/work/other.bi" {
		t.Fatalf("missing file field should default to the analyzed path, got %q", result.File)
	}
}

func TestAnalyzeToleratesStderrNoise(t *testing.T) {
	stub := writeStubCompiler(t, `echo 'warning: deprecated flag' >&2
echo '{"success":true,"file":"/work/main.bi","error_count":0,"warning_count":0,"diagnostics":[],"symbols":[]}'`)
	c := clientWithBinary(stub)

	if result := c.Analyze(context.Background(), "/work/main.bi"); result == nil {
		t.Fatal("stderr output alone must not fail the analysis")
	}
}

func TestAnalyzeNonZeroExitWithOutputStillParses(t *testing.T) {
	stub := writeStubCompiler(t, `echo '{"success":false,"file":"/work/main.bi","error_count":1,"warning_count":0,"diagnostics":[{"severity":"error","line":1,"col":1,"message":"bad"}],"symbols":[]}'
exit 1`)
	c := clientWithBinary(stub)

	result := c.Analyze(context.Background(), "/work/main.bi")
	if result == nil {
		t.Fatal("analyzer exiting non-zero with valid JSON should still produce a result")
	}
	if result.Success {
		t.Fatal("expected success=false from compiler output")
	}
}

func TestAnalyzeReturnsNilOnEmptyOutput(t *testing.T) {
	stub := writeStubCompiler(t, `exit 0`)
	c := clientWithBinary(stub)

	if result := c.Analyze(context.Background(), "/work/main.bi"); result != nil {
		t.Fatalf("empty stdout should be a soft failure, got %+v", result)
	}
}

func TestAnalyzeReturnsNilOnGarbageOutput(t *testing.T) {
	stub := writeStubCompiler(t, `echo 'segmentation fault'`)
	c := clientWithBinary(stub)

	if result := c.Analyze(context.Background(), "/work/main.bi"); result != nil {
		t.Fatalf("unparsable stdout should be a soft failure, got %+v", result)
	}
}

func TestAnalyzeReturnsNilOnSpawnFailure(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.CompilerPath = filepath.Join(t.TempDir(), "missing-binary")
	c := NewClient(cfg)

	if result := c.Analyze(context.Background(), "/work/main.bi"); result != nil {
		t.Fatalf("spawn failure should be a soft failure, got %+v", result)
	}
}

func TestAnalyzeErrClassifiesFailures(t *testing.T) {
	missing := clientWithBinary(filepath.Join(t.TempDir(), "missing-binary"))
	if _, err := missing.AnalyzeErr(context.Background(), "/work/main.bi"); !bismuterrors.IsProcessError(err) {
		t.Fatalf("spawn failure should be a process error, got %v", err)
	}

	silent := clientWithBinary(writeStubCompiler(t, `exit 0`))
	if _, err := silent.AnalyzeErr(context.Background(), "/work/main.bi"); !bismuterrors.IsProcessError(err) {
		t.Fatalf("empty output should be a process error, got %v", err)
	}

	garbage := clientWithBinary(writeStubCompiler(t, `echo 'not json'`))
	if _, err := garbage.AnalyzeErr(context.Background(), "/work/main.bi"); !bismuterrors.IsProcessError(err) {
		t.Fatalf("unparsable output should be a process error, got %v", err)
	}
}

func TestAnalyzeForwardsCompilerDirOnlyWhenSet(t *testing.T) {
	// The stub echoes its arguments back as the diagnostic message so the
	// test can observe the exact invocation.
	stub := writeStubCompiler(t, `echo "{\"success\":true,\"file\":\"args\",\"error_count\":0,\"warning_count\":0,\"diagnostics\":[{\"severity\":\"note\",\"line\":1,\"col\":1,\"message\":\"$*\"}],\"symbols\":[]}"`)

	cfg := config.GetDefaultConfig()
	cfg.CompilerPath = stub
	c := NewClient(cfg)
	result := c.Analyze(context.Background(), "/work/main.bi")
	if result == nil {
		t.Fatal("expected result")
	}
	if got := result.Diagnostics[0].Message; got != "analyze /work/main.bi" {
		t.Fatalf("unexpected invocation without compiler_dir: %q", got)
	}

	dir := t.TempDir()
	cfg2 := config.GetDefaultConfig()
	cfg2.CompilerPath = stub
	cfg2.CompilerDir = dir
	c2 := NewClient(cfg2)
	result = c2.Analyze(context.Background(), "/work/main.bi")
	if result == nil {
		t.Fatal("expected result")
	}
	if got, want := result.Diagnostics[0].Message, "analyze /work/main.bi --compiler-dir "+dir; got != want {
		t.Fatalf("unexpected invocation with compiler_dir: got %q want %q", got, want)
	}
}

func TestCheckBinary(t *testing.T) {
	stub := writeStubCompiler(t, `exit 0`)
	if !clientWithBinary(stub).CheckBinary() {
		t.Fatal("healthy binary should pass the probe")
	}

	bad := filepath.Join(t.TempDir(), "missing-binary")
	if clientWithBinary(bad).CheckBinary() {
		t.Fatal("missing binary should fail the probe")
	}
}
