package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFileRejectsMissingFile(t *testing.T) {
	err := AnalyzeFile("", filepath.Join(t.TempDir(), "absent.bi"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestDemangleName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"__lang_rt_Str", "str"},
		{"__lang_rt_List_I64", "List[i64]"},
		{"__lang_rt_Dict_STR_I64", "Dict[str, i64]"},
		{"__lang_total_2", "total"},
		{"already_plain", "already_plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, demangleName(tt.name), "demangle %q", tt.name)
	}
}
