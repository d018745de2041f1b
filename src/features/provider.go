package features

import (
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/index"
	"bismut-lsp/src/references"
)

// Provider answers editor queries from the symbol cache. Every method is
// a value-or-absence contract: misses return nil or empty, never errors.
type Provider struct {
	idx      *index.SymbolIndex
	resolver *index.Resolver
	searcher *references.Searcher
}

// NewProvider creates a provider over the index for the given workspace root.
func NewProvider(idx *index.SymbolIndex, workspaceRoot string) *Provider {
	return &Provider{
		idx:      idx,
		resolver: index.NewResolver(idx),
		searcher: references.NewSearcher(workspaceRoot),
	}
}

// resolve finds the best symbol for word, using the dotted receiver
// context when present.
func (p *Provider) resolve(filePath, receiver, word string) *analyzer.Symbol {
	if receiver != "" {
		return p.resolver.ResolveMember(filePath, receiver, word)
	}
	return p.resolver.ResolveWord(word)
}

// Hover builds the hover content for word at its dotted-receiver context,
// or nil when nothing resolves.
func (p *Provider) Hover(filePath, receiver, word string) *protocol.Hover {
	sym := p.resolve(filePath, receiver, word)
	if sym == nil {
		return nil
	}

	var content strings.Builder
	content.WriteString("```bismut\n")
	content.WriteString(kindLabel(sym.Kind))
	content.WriteString(" ")
	content.WriteString(sym.Name)
	if sym.Detail != "" {
		content.WriteString(": ")
		content.WriteString(sym.Detail)
	}
	content.WriteString("\n```")
	if sym.Doc != "" {
		content.WriteString("\n\n")
		content.WriteString(sym.Doc)
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content.String(),
		},
	}
}

// Definition resolves word to its declaration location, or nil for misses
// and synthetic (unlocated) symbols.
func (p *Provider) Definition(filePath, receiver, word string) *protocol.Location {
	sym := p.resolve(filePath, receiver, word)
	if sym == nil || !sym.Located() {
		return nil
	}
	loc := symbolLocation(sym)
	return &loc
}

// References runs the textual workspace search for word. The resolved
// declaration is included when includeDeclaration is set.
func (p *Provider) References(word string, includeDeclaration bool) []protocol.Location {
	var decl *references.Location
	if includeDeclaration {
		if sym := p.resolver.ResolveWord(word); sym != nil && sym.Located() {
			decl = &references.Location{File: sym.File, Line: sym.Line, Col: sym.Col}
		}
	}

	matches := p.searcher.Search(word, decl)
	if len(matches) == 0 {
		return nil
	}
	out := make([]protocol.Location, 0, len(matches))
	for _, m := range matches {
		line := uint32(clampNonNegative(m.Line - 1))
		col := uint32(clampNonNegative(m.Col - 1))
		out = append(out, protocol.Location{
			URI: uri.File(m.File),
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + uint32(len(word))},
			},
		})
	}
	return out
}

// symbolLocation converts a located symbol's 1-based position to a
// zero-based editor location spanning its simple name.
func symbolLocation(sym *analyzer.Symbol) protocol.Location {
	line := uint32(clampNonNegative(sym.Line - 1))
	col := uint32(clampNonNegative(sym.Col - 1))
	return protocol.Location{
		URI: uri.File(sym.File),
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + uint32(len(sym.SimpleName()))},
		},
	}
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
