// Package index maintains the in-memory symbol cache for analyzed Bismut
// files and answers the point and name queries behind every editor feature.
package index

import (
	"sync"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/internal/common"
)

// SymbolIndex holds one analysis snapshot per file plus derived name
// indices. Per-file results are replaced wholesale, and the global index
// is rebuilt from scratch on every mutation so it always exactly reflects
// the union of the current per-file results.
//
// The original design ran on a single event loop; here analysis results
// complete on scheduler goroutines, so the maps are guarded by a RWMutex.
// The rebuild-wholesale invariant is unchanged: no query ever observes a
// partially merged global index.
type SymbolIndex struct {
	mu sync.RWMutex

	// resultsByFile maps file path to the latest snapshot for that file.
	resultsByFile map[string]*analyzer.AnalysisResult

	// localIndex maps file path to that file's name index. Both full
	// dotted names and derived simple names are keys; symbol slices keep
	// insertion order for tie-breaking.
	localIndex map[string]map[string][]analyzer.Symbol

	// globalIndex is the merged name index across all files, rebuilt
	// deterministically from localIndex in fileOrder.
	globalIndex map[string][]analyzer.Symbol

	// fileOrder records ingestion order so rebuilds are deterministic.
	fileOrder []string
}

// NewSymbolIndex creates an empty symbol index.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		resultsByFile: make(map[string]*analyzer.AnalysisResult),
		localIndex:    make(map[string]map[string][]analyzer.Symbol),
		globalIndex:   make(map[string][]analyzer.Symbol),
	}
}

// Ingest stores or replaces the snapshot for result.File, recomputes that
// file's local name index, and rebuilds the global index.
func (idx *SymbolIndex) Ingest(result *analyzer.AnalysisResult) {
	if result == nil || result.File == "" {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, known := idx.resultsByFile[result.File]; !known {
		idx.fileOrder = append(idx.fileOrder, result.File)
	}
	idx.resultsByFile[result.File] = result
	idx.localIndex[result.File] = buildLocalIndex(result)
	idx.rebuildGlobalIndex()

	common.IndexLogger.Debug("ingested %s: %d symbols, %d names in global index",
		result.File, len(result.Symbols), len(idx.globalIndex))
}

// Remove deletes the file's snapshot and local index and rebuilds the
// global index. Removing an unknown file is a no-op.
func (idx *SymbolIndex) Remove(filePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, known := idx.resultsByFile[filePath]; !known {
		return
	}
	delete(idx.resultsByFile, filePath)
	delete(idx.localIndex, filePath)
	for i, f := range idx.fileOrder {
		if f == filePath {
			idx.fileOrder = append(idx.fileOrder[:i], idx.fileOrder[i+1:]...)
			break
		}
	}
	idx.rebuildGlobalIndex()
}

// buildLocalIndex derives a file's name index from its snapshot, mapping
// both the full dotted name and the derived simple name to each symbol.
func buildLocalIndex(result *analyzer.AnalysisResult) map[string][]analyzer.Symbol {
	local := make(map[string][]analyzer.Symbol, len(result.Symbols)*2)
	for _, sym := range result.Symbols {
		if sym.Name == "" {
			continue
		}
		local[sym.Name] = append(local[sym.Name], sym)
		if simple := sym.SimpleName(); simple != sym.Name {
			local[simple] = append(local[simple], sym)
		}
	}
	return local
}

// rebuildGlobalIndex recomputes the merged index from every file's local
// index. Cost is linear in total symbols, acceptable because symbol counts
// per file are small and file count is bounded by open editors.
// Callers must hold the write lock.
func (idx *SymbolIndex) rebuildGlobalIndex() {
	global := make(map[string][]analyzer.Symbol)
	for _, file := range idx.fileOrder {
		for name, syms := range idx.localIndex[file] {
			global[name] = append(global[name], syms...)
		}
	}
	idx.globalIndex = global
}

// LookupByName returns every known symbol with the given exact name,
// matching both dotted full names and bare simple names. The returned
// slice is a copy; missing names yield an empty slice.
func (idx *SymbolIndex) LookupByName(name string) []analyzer.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	syms := idx.globalIndex[name]
	out := make([]analyzer.Symbol, len(syms))
	copy(out, syms)
	return out
}

// LookupDefinition returns the best definition for name: definition kinds
// beat usage-like kinds, and ties break on discovery order. Returns nil
// when the name is unknown.
func (idx *SymbolIndex) LookupDefinition(name string) *analyzer.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var fallback *analyzer.Symbol
	for i := range idx.globalIndex[name] {
		sym := idx.globalIndex[name][i]
		if sym.Kind.IsDefinition() {
			return &sym
		}
		if fallback == nil {
			s := sym
			fallback = &s
		}
	}
	return fallback
}

// LookupMembers returns every symbol whose parent equals ownerName, in
// file-then-declaration order.
func (idx *SymbolIndex) LookupMembers(ownerName string) []analyzer.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if ownerName == "" {
		return nil
	}
	var members []analyzer.Symbol
	for _, file := range idx.fileOrder {
		result := idx.resultsByFile[file]
		for _, sym := range result.Symbols {
			if sym.Parent == ownerName {
				members = append(members, sym)
			}
		}
	}
	return members
}

// LookupNear returns the symbol in filePath on exactly the given line with
// the smallest column distance to col, or nil when the line has none.
// There is deliberately no cross-line search.
func (idx *SymbolIndex) LookupNear(filePath string, line, col int) *analyzer.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := idx.resultsByFile[filePath]
	if result == nil {
		return nil
	}

	var best *analyzer.Symbol
	bestDist := -1
	for i := range result.Symbols {
		sym := &result.Symbols[i]
		if sym.Line != line {
			continue
		}
		dist := sym.Col - col
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			s := *sym
			best = &s
			bestDist = dist
		}
	}
	return best
}

// LookupVariableType scans the file's symbols for the first variable,
// constant, parameter, or field whose simple name equals varName and which
// carries a non-empty detail, and returns that detail as the declared type.
// First textual match wins: there is no scope or shadowing model, a known
// limitation carried over from the original behavior.
func (idx *SymbolIndex) LookupVariableType(filePath, varName string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := idx.resultsByFile[filePath]
	if result == nil {
		return ""
	}
	for i := range result.Symbols {
		sym := &result.Symbols[i]
		switch sym.Kind {
		case analyzer.KindVariable, analyzer.KindConstant, analyzer.KindParameter, analyzer.KindField:
		default:
			continue
		}
		if sym.Detail == "" || sym.SimpleName() != varName {
			continue
		}
		return sym.Detail
	}
	return ""
}

// FileResult returns the current snapshot for a file, or nil if the file
// has never been successfully analyzed (or was closed).
func (idx *SymbolIndex) FileResult(filePath string) *analyzer.AnalysisResult {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.resultsByFile[filePath]
}

// Files returns the analyzed file paths in ingestion order.
func (idx *SymbolIndex) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.fileOrder))
	copy(out, idx.fileOrder)
	return out
}

// AllSymbols returns every cached symbol in file-then-declaration order.
func (idx *SymbolIndex) AllSymbols() []analyzer.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []analyzer.Symbol
	for _, file := range idx.fileOrder {
		out = append(out, idx.resultsByFile[file].Symbols...)
	}
	return out
}

// GlobalNames returns the number of distinct names in the global index.
func (idx *SymbolIndex) GlobalNames() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.globalIndex)
}
