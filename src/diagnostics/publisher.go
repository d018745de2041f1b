// Package diagnostics converts raw compiler diagnostics into editor
// annotations, replaced per analyzed file on each analysis cycle.
package diagnostics

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"bismut-lsp/src/analyzer"
)

// diagnosticSource tags published annotations with their producer.
const diagnosticSource = "bismutc"

// Sink receives the converted diagnostic sets; the LSP server implements
// it by sending textDocument/publishDiagnostics notifications.
type Sink interface {
	PublishDiagnostics(fileURI uri.URI, diagnostics []protocol.Diagnostic)
}

// Publisher groups and converts each snapshot's diagnostics. Diagnostics
// may point at a different file than the one analyzed (an included unit);
// they are grouped by their own file field, defaulting to the analyzed
// file when absent. Only the analyzed file's prior set is cleared.
type Publisher struct {
	sink Sink
}

// NewPublisher creates a publisher over the given sink.
func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

// Publish converts and emits the snapshot's diagnostics, replacing the
// analyzed file's previous set even when the new set is empty.
func (p *Publisher) Publish(result *analyzer.AnalysisResult) {
	if result == nil || p.sink == nil {
		return
	}

	groups := map[string][]protocol.Diagnostic{
		result.File: {},
	}
	for _, diag := range result.Diagnostics {
		file := diag.File
		if file == "" {
			file = result.File
		}
		groups[file] = append(groups[file], Convert(diag))
	}

	for file, diags := range groups {
		p.sink.PublishDiagnostics(uri.File(file), diags)
	}
}

// Clear removes the published diagnostics for a closed file.
func (p *Publisher) Clear(filePath string) {
	if p.sink == nil {
		return
	}
	p.sink.PublishDiagnostics(uri.File(filePath), []protocol.Diagnostic{})
}

// Convert maps one compiler diagnostic to a display diagnostic: 1-based
// line/column become 0-based with negative results clamped to zero, and
// the highlighted span covers at least one character.
func Convert(diag analyzer.Diagnostic) protocol.Diagnostic {
	line := uint32(clampNonNegative(diag.Line - 1))
	col := uint32(clampNonNegative(diag.Col - 1))
	span := diag.Span
	if span < 1 {
		span = 1
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + uint32(span)},
		},
		Severity: convertSeverity(diag.Severity),
		Source:   diagnosticSource,
		Message:  diag.Message,
	}
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func convertSeverity(severity analyzer.DiagSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case analyzer.SeverityError:
		return protocol.DiagnosticSeverityError
	case analyzer.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analyzer.SeverityNote:
		return protocol.DiagnosticSeverityInformation
	}
	return protocol.DiagnosticSeverityError
}
