package constants

import "time"

// Timeout constants for analyzer invocations
const (
	// AnalyzeTimeout bounds a single `bismutc analyze` run
	AnalyzeTimeout = 30 * time.Second

	// ProbeTimeout bounds the lightweight binary liveness probe
	ProbeTimeout = 5 * time.Second
)

// Refresh scheduling constants
const (
	// DefaultDebounceDelay is used when the configured debounce is zero or negative
	DefaultDebounceDelay = 800 * time.Millisecond

	// FileWatchDebounceDelay is the debounce for out-of-editor file events
	FileWatchDebounceDelay = 500 * time.Millisecond
)

// Bismut source file constants
const (
	// FileExtension is the extension of Bismut source files
	FileExtension = ".bi"

	// DefaultCompilerBinary is used when no compiler path is configured
	DefaultCompilerBinary = "bismutc"
)

// Transport constants
const (
	// MessageBufferSize is the read buffer for the stdio transport. Large
	// enough that a full-workspace symbol payload never truncates.
	MessageBufferSize = 1024 * 1024
)

// Reference search limits
const (
	// MaxReferenceFiles bounds the number of workspace files scanned per search
	MaxReferenceFiles = 200
)

// Directories to skip during workspace file scanning
var SkipDirectories = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"build":        true,
	"dist":         true,
	"target":       true,
	".git":         true,
	".svn":         true,
	".hg":          true,
	".idea":        true,
	".vscode":      true,
}
