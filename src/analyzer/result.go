// Package analyzer invokes the external Bismut compiler's analyze subcommand
// and parses its JSON output into structured analysis results.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SymbolKind identifies the kind of a declared or referenced entity.
// The set is closed: every consumer switches exhaustively over these
// constants so an unmapped kind is caught in review, not at runtime.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindClass       SymbolKind = "class"
	KindStruct      SymbolKind = "struct"
	KindInterface   SymbolKind = "interface"
	KindEnum        SymbolKind = "enum"
	KindMethod      SymbolKind = "method"
	KindMethodSig   SymbolKind = "method_sig"
	KindField       SymbolKind = "field"
	KindVariable    SymbolKind = "variable"
	KindConstant    SymbolKind = "constant"
	KindParameter   SymbolKind = "parameter"
	KindEnumVariant SymbolKind = "enum_variant"
)

// AllSymbolKinds lists every kind the analyzer can report.
var AllSymbolKinds = []SymbolKind{
	KindFunction, KindClass, KindStruct, KindInterface, KindEnum,
	KindMethod, KindMethodSig, KindField, KindVariable, KindConstant,
	KindParameter, KindEnumVariant,
}

// Valid reports whether k is one of the known analyzer kinds.
func (k SymbolKind) Valid() bool {
	switch k {
	case KindFunction, KindClass, KindStruct, KindInterface, KindEnum,
		KindMethod, KindMethodSig, KindField, KindVariable, KindConstant,
		KindParameter, KindEnumVariant:
		return true
	}
	return false
}

// IsDefinition reports whether symbols of this kind count as definitions
// for go-to-definition purposes. Usage-like kinds (parameter, method_sig,
// enum_variant) lose to any definition kind of the same name.
func (k SymbolKind) IsDefinition() bool {
	switch k {
	case KindFunction, KindClass, KindStruct, KindInterface, KindEnum,
		KindMethod, KindField, KindVariable, KindConstant:
		return true
	case KindParameter, KindMethodSig, KindEnumVariant:
		return false
	}
	return false
}

// DiagSeverity is the severity the compiler assigns to a diagnostic.
type DiagSeverity string

const (
	SeverityError   DiagSeverity = "error"
	SeverityWarning DiagSeverity = "warning"
	SeverityNote    DiagSeverity = "note"
)

// Symbol is one declared or referenced named entity reported by the analyzer.
// Name may be dotted (Owner.member) to encode ownership; SimpleName derives
// the member part. Line <= 0 marks a synthetic symbol with no source location.
type Symbol struct {
	Name   string     `json:"name"`
	Kind   SymbolKind `json:"kind"`
	File   string     `json:"file"`
	Line   int        `json:"line"`
	Col    int        `json:"col"`
	Doc    string     `json:"doc,omitempty"`
	Detail string     `json:"detail,omitempty"`
	Parent string     `json:"parent,omitempty"`
}

// SimpleName returns the substring after the last dot of Name, or Name
// itself for undotted symbols.
func (s *Symbol) SimpleName() string {
	if i := strings.LastIndex(s.Name, "."); i >= 0 {
		return s.Name[i+1:]
	}
	return s.Name
}

// Located reports whether the symbol carries a real source position.
func (s *Symbol) Located() bool {
	return s.Line > 0
}

// Diagnostic is one compiler-reported issue. Line and Col are 1-based;
// Span is the highlighted character length.
type Diagnostic struct {
	Severity DiagSeverity `json:"severity"`
	File     string       `json:"file,omitempty"`
	Line     int          `json:"line"`
	Col      int          `json:"col"`
	Span     int          `json:"span,omitempty"`
	Message  string       `json:"message"`
}

// AnalysisResult is the atomic snapshot for one source file, produced
// wholesale by a single analyzer invocation. A new result always replaces
// the prior one for the same file in full.
type AnalysisResult struct {
	Success      bool         `json:"success"`
	File         string       `json:"file"`
	ErrorCount   int          `json:"error_count"`
	WarningCount int          `json:"warning_count"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	Symbols      []Symbol     `json:"symbols"`
}

// ParseResult decodes a raw analyzer stdout document into an AnalysisResult.
func ParseResult(data []byte) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer output: %w", err)
	}
	return &result, nil
}
