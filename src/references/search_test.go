package references

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestSearchWordBoundaries(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.bi": "let count = 0\ncounter = count + 1\n",
	})
	s := NewSearcher(root)

	results := s.Search("count", nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 word-boundary matches, got %+v", results)
	}
	// "counter" must not match; the second line's match is at column 11.
	if results[0].Line != 1 || results[0].Col != 5 {
		t.Errorf("first match misplaced: %+v", results[0])
	}
	if results[1].Line != 2 || results[1].Col != 11 {
		t.Errorf("second match misplaced: %+v", results[1])
	}
}

func TestSearchSkipsNonBismutFiles(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.bi":   "value\n",
		"README.md": "value value value\n",
		"lib/a.bi":  "value\n",
	})
	results := NewSearcher(root).Search("value", nil)
	if len(results) != 2 {
		t.Fatalf("only .bi files should be scanned, got %+v", results)
	}
}

func TestSearchSkipsToolDirectories(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.bi":              "thing\n",
		".git/blob.bi":         "thing\n",
		"node_modules/dep.bi":  "thing\n",
		"vendor/other/file.bi": "thing\n",
	})
	results := NewSearcher(root).Search("thing", nil)
	if len(results) != 1 {
		t.Fatalf("tool directories should be skipped, got %+v", results)
	}
}

func TestSearchDeduplicatesDeclaration(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.bi": "fn helper() {}\nhelper()\n",
	})
	decl := &Location{File: filepath.Join(root, "main.bi"), Line: 1, Col: 4}
	results := NewSearcher(root).Search("helper", decl)

	if len(results) != 2 {
		t.Fatalf("declaration must not be duplicated: %+v", results)
	}
	if results[0] != *decl {
		t.Errorf("declaration should come first, got %+v", results[0])
	}
}

func TestSearchBoundedFileCount(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 250; i++ {
		files[fmt.Sprintf("f%03d.bi", i)] = "needle\n"
	}
	root := writeWorkspace(t, files)

	results := NewSearcher(root).Search("needle", nil)
	if len(results) != 200 {
		t.Fatalf("scan should stop at the file cap, got %d matches", len(results))
	}
}

func TestSearchEmptyWord(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"main.bi": "x\n"})
	if results := NewSearcher(root).Search("", nil); results != nil {
		t.Fatalf("empty word should yield nothing, got %+v", results)
	}
}
