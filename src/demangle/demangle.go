// Package demangle turns compiler-mangled runtime names back into Bismut
// surface syntax for display in debugger variable panes.
package demangle

import (
	"regexp"
	"strings"
)

var (
	listPattern = regexp.MustCompile(`^__lang_rt_List_(\w+)$`)
	dictPattern = regexp.MustCompile(`^__lang_rt_Dict_(\w+?)_(\w+)$`)

	// mangledLocal matches compiler-uniqued local variable names, e.g.
	// __lang_total_2 for a source-level variable named total.
	mangledLocal = regexp.MustCompile(`^__lang_(.+?)(?:_\d+)?$`)
)

// tagNames maps the compiler's type tags to Bismut type names. Tags not
// listed here are user-defined type names and pass through unchanged.
var tagNames = map[string]string{
	"I8": "i8", "I16": "i16", "I32": "i32", "I64": "i64",
	"U8": "u8", "U16": "u16", "U32": "u32", "U64": "u64",
	"F32": "f32", "F64": "f64", "BOOL": "bool", "STR": "str",
}

// TagName converts a compiler type tag like I64 or STR or Person to its
// Bismut spelling.
func TagName(tag string) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	return tag
}

// TypeName rewrites a mangled runtime type name into Bismut syntax.
// Unrecognized names come back unchanged, so the function is safe to run
// over every type a debugger reports.
func TypeName(mangled string) string {
	name := strings.TrimPrefix(mangled, "struct ")
	name = strings.TrimSuffix(name, "*")
	name = strings.TrimSpace(name)

	if name == "__lang_rt_Str" {
		return "str"
	}
	if m := listPattern.FindStringSubmatch(name); m != nil {
		return "List[" + TagName(m[1]) + "]"
	}
	if m := dictPattern.FindStringSubmatch(name); m != nil {
		return "Dict[" + TagName(m[1]) + ", " + TagName(m[2]) + "]"
	}
	return mangled
}

// VariableName strips the compiler's local-variable mangling, returning
// the source-level name and whether the input was mangled at all.
func VariableName(mangled string) (string, bool) {
	if strings.HasPrefix(mangled, "__lang_rt_") {
		return mangled, false
	}
	m := mangledLocal.FindStringSubmatch(mangled)
	if m == nil {
		return mangled, false
	}
	return m[1], true
}

// MatchesDisplayName reports whether a mangled variable name refers to
// the given source-level name, tolerating the numeric uniquing suffix
// the compiler appends on shadowing.
func MatchesDisplayName(mangled, display string) bool {
	name, ok := VariableName(mangled)
	if !ok {
		return mangled == display
	}
	return name == display
}
