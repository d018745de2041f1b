package features

import (
	"go.lsp.dev/protocol"

	"bismut-lsp/src/analyzer"
)

// DocumentOutline builds the hierarchical symbol tree for a file from its
// last snapshot. Members nest under the top-level symbol they belong to;
// symbols whose parent was never reported surface at the top level.
func (p *Provider) DocumentOutline(filePath string) []protocol.DocumentSymbol {
	result := p.idx.FileResult(filePath)
	if result == nil {
		return nil
	}

	var roots []protocol.DocumentSymbol
	rootIndex := make(map[string]int)
	for _, sym := range result.Symbols {
		if sym.Parent != "" || !sym.Located() {
			continue
		}
		rootIndex[sym.Name] = len(roots)
		roots = append(roots, documentSymbol(sym))
	}
	for _, sym := range result.Symbols {
		if sym.Parent == "" || !sym.Located() {
			continue
		}
		if at, ok := rootIndex[sym.Parent]; ok {
			roots[at].Children = append(roots[at].Children, documentSymbol(sym))
			continue
		}
		roots = append(roots, documentSymbol(sym))
	}
	return roots
}

func documentSymbol(sym analyzer.Symbol) protocol.DocumentSymbol {
	rng := symbolLocation(&sym).Range
	return protocol.DocumentSymbol{
		Name:           sym.SimpleName(),
		Detail:         sym.Detail,
		Kind:           documentSymbolKind(sym.Kind),
		Range:          rng,
		SelectionRange: rng,
	}
}
