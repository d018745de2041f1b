// Package features serves the editor-facing queries (hover, definition,
// completion, references, document outline) from the symbol cache.
package features

import (
	"go.lsp.dev/protocol"

	"bismut-lsp/src/analyzer"
)

// Keywords are the Bismut language keywords offered in completion.
var Keywords = []string{
	"fn", "let", "mut", "const", "struct", "class", "interface", "enum",
	"match", "if", "else", "while", "for", "in", "return", "break",
	"continue", "import", "pub", "self", "true", "false", "None",
}

// BuiltinTypes are the primitive and runtime container types.
var BuiltinTypes = []string{
	"i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64",
	"f32", "f64", "bool", "str",
	"List", "Dict",
}

// BuiltinFunctions are the always-available runtime functions.
var BuiltinFunctions = []string{
	"print", "println", "len", "push", "pop",
	"keys", "values", "contains", "format", "assert", "panic",
}

// completionKind maps a symbol kind to its completion item kind. The
// switch is exhaustive over the analyzer's closed kind set.
func completionKind(kind analyzer.SymbolKind) protocol.CompletionItemKind {
	switch kind {
	case analyzer.KindFunction:
		return protocol.CompletionItemKindFunction
	case analyzer.KindClass:
		return protocol.CompletionItemKindClass
	case analyzer.KindStruct:
		return protocol.CompletionItemKindStruct
	case analyzer.KindInterface:
		return protocol.CompletionItemKindInterface
	case analyzer.KindEnum:
		return protocol.CompletionItemKindEnum
	case analyzer.KindMethod:
		return protocol.CompletionItemKindMethod
	case analyzer.KindMethodSig:
		return protocol.CompletionItemKindMethod
	case analyzer.KindField:
		return protocol.CompletionItemKindField
	case analyzer.KindVariable:
		return protocol.CompletionItemKindVariable
	case analyzer.KindConstant:
		return protocol.CompletionItemKindConstant
	case analyzer.KindParameter:
		return protocol.CompletionItemKindVariable
	case analyzer.KindEnumVariant:
		return protocol.CompletionItemKindEnumMember
	}
	return protocol.CompletionItemKindText
}

// documentSymbolKind maps a symbol kind to its outline kind. The switch
// is exhaustive over the analyzer's closed kind set.
func documentSymbolKind(kind analyzer.SymbolKind) protocol.SymbolKind {
	switch kind {
	case analyzer.KindFunction:
		return protocol.SymbolKindFunction
	case analyzer.KindClass:
		return protocol.SymbolKindClass
	case analyzer.KindStruct:
		return protocol.SymbolKindStruct
	case analyzer.KindInterface:
		return protocol.SymbolKindInterface
	case analyzer.KindEnum:
		return protocol.SymbolKindEnum
	case analyzer.KindMethod:
		return protocol.SymbolKindMethod
	case analyzer.KindMethodSig:
		return protocol.SymbolKindMethod
	case analyzer.KindField:
		return protocol.SymbolKindField
	case analyzer.KindVariable:
		return protocol.SymbolKindVariable
	case analyzer.KindConstant:
		return protocol.SymbolKindConstant
	case analyzer.KindParameter:
		return protocol.SymbolKindVariable
	case analyzer.KindEnumVariant:
		return protocol.SymbolKindEnumMember
	}
	return protocol.SymbolKindNull
}

// kindLabel is the human-readable kind shown in hover headers. The switch
// is exhaustive over the analyzer's closed kind set.
func kindLabel(kind analyzer.SymbolKind) string {
	switch kind {
	case analyzer.KindFunction:
		return "fn"
	case analyzer.KindClass:
		return "class"
	case analyzer.KindStruct:
		return "struct"
	case analyzer.KindInterface:
		return "interface"
	case analyzer.KindEnum:
		return "enum"
	case analyzer.KindMethod, analyzer.KindMethodSig:
		return "method"
	case analyzer.KindField:
		return "field"
	case analyzer.KindVariable:
		return "var"
	case analyzer.KindConstant:
		return "const"
	case analyzer.KindParameter:
		return "param"
	case analyzer.KindEnumVariant:
		return "variant"
	}
	return string(kind)
}
