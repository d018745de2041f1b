package features

import (
	"sort"

	"go.lsp.dev/protocol"
)

// Completions produces completion items for the cursor context. With a
// dotted receiver it offers the receiver type's members only; otherwise
// keywords, builtins and every indexed symbol name.
func (p *Provider) Completions(filePath, receiver string) []protocol.CompletionItem {
	if receiver != "" {
		return p.memberCompletions(filePath, receiver)
	}
	return p.globalCompletions(filePath)
}

func (p *Provider) memberCompletions(filePath, receiver string) []protocol.CompletionItem {
	members := p.resolver.MembersOf(filePath, receiver)
	items := make([]protocol.CompletionItem, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		label := m.SimpleName()
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:         label,
			Kind:          completionKind(m.Kind),
			Detail:        m.Detail,
			Documentation: m.Doc,
		})
	}
	return items
}

func (p *Provider) globalCompletions(filePath string) []protocol.CompletionItem {
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	add := func(item protocol.CompletionItem) {
		if item.Label == "" || seen[item.Label] {
			return
		}
		seen[item.Label] = true
		items = append(items, item)
	}

	for _, kw := range Keywords {
		add(protocol.CompletionItem{Label: kw, Kind: protocol.CompletionItemKindKeyword})
	}
	for _, t := range BuiltinTypes {
		add(protocol.CompletionItem{Label: t, Kind: protocol.CompletionItemKindClass, Detail: "builtin type"})
	}
	for _, f := range BuiltinFunctions {
		add(protocol.CompletionItem{Label: f, Kind: protocol.CompletionItemKindFunction, Detail: "builtin"})
	}

	// Indexed symbols come last so builtins keep their canonical kinds;
	// nested members are offered under their simple name too.
	symbols := p.idx.AllSymbols()
	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].Name < symbols[j].Name
	})
	for _, sym := range symbols {
		detail := sym.Detail
		if detail == "" && sym.Parent != "" {
			detail = sym.Parent
		}
		add(protocol.CompletionItem{
			Label:         sym.SimpleName(),
			Kind:          completionKind(sym.Kind),
			Detail:        detail,
			Documentation: sym.Doc,
		})
	}
	return items
}
