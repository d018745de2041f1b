package features

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/index"
)

func seededProvider(t *testing.T, root string) *Provider {
	t.Helper()
	idx := index.NewSymbolIndex()
	idx.Ingest(&analyzer.AnalysisResult{
		Success: true,
		File:    "/work/geometry.bi",
		Symbols: []analyzer.Symbol{
			{Name: "Point", Kind: analyzer.KindClass, File: "/work/geometry.bi", Line: 1, Col: 7, Doc: "A 2D point."},
			{Name: "Point.x", Kind: analyzer.KindField, File: "/work/geometry.bi", Line: 2, Col: 5, Detail: "f64", Parent: "Point"},
			{Name: "Point.y", Kind: analyzer.KindField, File: "/work/geometry.bi", Line: 3, Col: 5, Detail: "f64", Parent: "Point"},
			{Name: "Point.norm", Kind: analyzer.KindMethod, File: "/work/geometry.bi", Line: 5, Col: 5, Detail: "() -> f64", Parent: "Point"},
			{Name: "origin", Kind: analyzer.KindVariable, File: "/work/geometry.bi", Line: 9, Col: 1, Detail: "Point"},
			{Name: "scale", Kind: analyzer.KindFunction, File: "/work/geometry.bi", Line: 11, Col: 1, Detail: "(p: Point, k: f64) -> Point"},
		},
	})
	return NewProvider(idx, root)
}

func TestHoverFormatsSignatureAndDoc(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	hover := p.Hover("/work/geometry.bi", "", "Point")
	require.NotNil(t, hover)

	assert.Equal(t, protocol.Markdown, hover.Contents.Kind)
	assert.Contains(t, hover.Contents.Value, "```bismut\nclass Point\n```")
	assert.Contains(t, hover.Contents.Value, "A 2D point.")
}

func TestHoverResolvesDottedMember(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	hover := p.Hover("/work/geometry.bi", "origin", "norm")
	require.NotNil(t, hover)

	assert.Contains(t, hover.Contents.Value, "method Point.norm: () -> f64")
}

func TestHoverMissReturnsNil(t *testing.T) {
	p := seededProvider(t, t.TempDir())
	assert.Nil(t, p.Hover("/work/geometry.bi", "", "nope"))
}

func TestDefinitionConvertsToZeroBased(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	loc := p.Definition("/work/geometry.bi", "", "scale")
	require.NotNil(t, loc)
	assert.Equal(t, uri.File("/work/geometry.bi"), loc.URI)
	assert.Equal(t, uint32(10), loc.Range.Start.Line)
	assert.Equal(t, uint32(0), loc.Range.Start.Character)
	assert.Equal(t, uint32(len("scale")), loc.Range.End.Character)
}

func TestDefinitionUnlocatedSymbolIsNil(t *testing.T) {
	idx := index.NewSymbolIndex()
	idx.Ingest(&analyzer.AnalysisResult{
		Success: true,
		File:    "/work/gen.bi",
		Symbols: []analyzer.Symbol{
			{Name: "synthetic", Kind: analyzer.KindFunction, File: "/work/gen.bi"},
		},
	})
	p := NewProvider(idx, t.TempDir())
	assert.Nil(t, p.Definition("/work/gen.bi", "", "synthetic"))
}

func TestReferencesFindsWholeWords(t *testing.T) {
	root := t.TempDir()
	src := "let scale = 2\nlet scaled = scale * 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.bi"), []byte(src), 0o644))

	p := seededProvider(t, root)
	locs := p.References("scale", false)
	require.Len(t, locs, 2)
	assert.Equal(t, uint32(0), locs[0].Range.Start.Line)
	assert.Equal(t, uint32(4), locs[0].Range.Start.Character)
	assert.Equal(t, uint32(1), locs[1].Range.Start.Line)
	assert.Equal(t, uint32(13), locs[1].Range.Start.Character)
}

func TestCompletionsGlobalMixesBuiltinsAndSymbols(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	items := p.Completions("/work/geometry.bi", "")
	labels := make(map[string]protocol.CompletionItemKind, len(items))
	for _, item := range items {
		labels[item.Label] = item.Kind
	}

	assert.Equal(t, protocol.CompletionItemKindKeyword, labels["if"])
	assert.Equal(t, protocol.CompletionItemKindClass, labels["str"])
	assert.Equal(t, protocol.CompletionItemKindFunction, labels["println"])
	assert.Equal(t, protocol.CompletionItemKindClass, labels["Point"])
	assert.Equal(t, protocol.CompletionItemKindFunction, labels["scale"])
}

func TestCompletionsNoDuplicateLabels(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	seen := make(map[string]int)
	for _, item := range p.Completions("/work/geometry.bi", "") {
		seen[item.Label]++
	}
	for label, n := range seen {
		assert.Equal(t, 1, n, "label %q offered %d times", label, n)
	}
}

func TestCompletionsForReceiverListsMembers(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	items := p.Completions("/work/geometry.bi", "origin")
	require.Len(t, items, 3)
	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"x", "y", "norm"}, labels)
}

func TestDocumentOutlineNestsMembers(t *testing.T) {
	p := seededProvider(t, t.TempDir())

	outline := p.DocumentOutline("/work/geometry.bi")
	require.Len(t, outline, 3)

	assert.Equal(t, "Point", outline[0].Name)
	assert.Equal(t, protocol.SymbolKindClass, outline[0].Kind)
	require.Len(t, outline[0].Children, 3)
	assert.Equal(t, "x", outline[0].Children[0].Name)
	assert.Equal(t, protocol.SymbolKindField, outline[0].Children[0].Kind)
	assert.Equal(t, "norm", outline[0].Children[2].Name)

	assert.Equal(t, "origin", outline[1].Name)
	assert.Equal(t, "scale", outline[2].Name)
}

func TestDocumentOutlineUnknownFileIsNil(t *testing.T) {
	p := seededProvider(t, t.TempDir())
	assert.Nil(t, p.DocumentOutline("/work/missing.bi"))
}

func TestKindMappingsCoverAllKinds(t *testing.T) {
	for _, kind := range analyzer.AllSymbolKinds {
		assert.NotZero(t, completionKind(kind), "completion kind for %s", kind)
		assert.NotZero(t, documentSymbolKind(kind), "document symbol kind for %s", kind)
		assert.False(t, strings.Contains(kindLabel(kind), " "), "label for %s", kind)
	}
}
