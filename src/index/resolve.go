package index

import (
	"bismut-lsp/src/analyzer"
)

// kindPriority orders same-name candidates for hover and definition.
// Lower wins; kinds missing from the table sort last.
var kindPriority = map[analyzer.SymbolKind]int{
	analyzer.KindFunction:    0,
	analyzer.KindClass:       1,
	analyzer.KindStruct:      2,
	analyzer.KindInterface:   3,
	analyzer.KindEnum:        4,
	analyzer.KindMethod:      5,
	analyzer.KindField:       6,
	analyzer.KindConstant:    7,
	analyzer.KindVariable:    8,
	analyzer.KindMethodSig:   9,
	analyzer.KindEnumVariant: 10,
	analyzer.KindParameter:   11,
}

// unknownKindPriority sorts any kind outside the table after all known kinds.
const unknownKindPriority = 100

func priorityOf(kind analyzer.SymbolKind) int {
	if p, ok := kindPriority[kind]; ok {
		return p
	}
	return unknownKindPriority
}

// BestSymbol picks the highest-priority symbol from same-name candidates,
// breaking ties on discovery order. Returns nil for an empty slice.
func BestSymbol(candidates []analyzer.Symbol) *analyzer.Symbol {
	var best *analyzer.Symbol
	bestPrio := unknownKindPriority + 1
	for i := range candidates {
		if p := priorityOf(candidates[i].Kind); p < bestPrio {
			s := candidates[i]
			best = &s
			bestPrio = p
		}
	}
	return best
}

// Resolver implements heuristic dotted-member resolution over the index.
// It has no real type checker: it resolves the receiver's declared type
// from local symbol data and falls back to treating the receiver itself
// as a type or module name. The layered fallback accepts false positives
// in exchange for useful hover, definition, and completion behavior.
type Resolver struct {
	idx *SymbolIndex
}

// NewResolver creates a resolver over the given index.
func NewResolver(idx *SymbolIndex) *Resolver {
	return &Resolver{idx: idx}
}

// ResolveMember resolves `receiver.word` as seen in filePath:
//
//  1. receiver as a local variable with a declared type T: look up T.word
//  2. receiver as a type or module name itself: look up receiver.word
//  3. unqualified fallback: look up word alone
//
// Returns the best candidate, or nil when every layer misses.
func (r *Resolver) ResolveMember(filePath, receiver, word string) *analyzer.Symbol {
	if word == "" {
		return nil
	}

	if receiver != "" {
		if declared := r.idx.LookupVariableType(filePath, receiver); declared != "" {
			if sym := BestSymbol(r.idx.LookupByName(declared + "." + word)); sym != nil {
				return sym
			}
		}
		if sym := BestSymbol(r.idx.LookupByName(receiver + "." + word)); sym != nil {
			return sym
		}
	}

	return BestSymbol(r.idx.LookupByName(word))
}

// ResolveWord resolves a bare identifier with no dotted receiver.
func (r *Resolver) ResolveWord(word string) *analyzer.Symbol {
	if word == "" {
		return nil
	}
	return BestSymbol(r.idx.LookupByName(word))
}

// MembersOf enumerates completion candidates for `receiver.`:
// members of the receiver's declared type first, then (when the declared
// type yields nothing) members of the receiver treated as a type name,
// which covers EnumName.Variant access where the "variable" is really a
// type reference.
func (r *Resolver) MembersOf(filePath, receiver string) []analyzer.Symbol {
	if receiver == "" {
		return nil
	}

	if declared := r.idx.LookupVariableType(filePath, receiver); declared != "" {
		if members := r.idx.LookupMembers(declared); len(members) > 0 {
			return members
		}
	}
	return r.idx.LookupMembers(receiver)
}
