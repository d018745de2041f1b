// Package references implements approximate find-references: a textual,
// word-boundary scan across workspace Bismut sources. It matches text,
// not scope-aware usage, a documented precision limitation.
package references

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/constants"
)

// Location is one match position with 1-based line and column.
type Location struct {
	File string
	Line int
	Col  int
}

// Searcher scans a workspace root for identifier references.
type Searcher struct {
	root     string
	maxFiles int
}

// NewSearcher creates a searcher rooted at the given workspace directory.
func NewSearcher(root string) *Searcher {
	return &Searcher{root: root, maxFiles: constants.MaxReferenceFiles}
}

// Search finds every word-boundary occurrence of word across workspace
// sources, bounded by the file cap. When declaration is non-nil it is
// placed first and exact (file, line, col) duplicates of it are dropped.
func (s *Searcher) Search(word string, declaration *Location) []Location {
	if word == "" {
		return nil
	}

	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		common.IndexLogger.Error("reference pattern for %q failed to compile: %v", word, err)
		return nil
	}

	var results []Location
	seen := make(map[string]bool)
	add := func(loc Location) {
		key := fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
		if seen[key] {
			return
		}
		seen[key] = true
		results = append(results, loc)
	}

	if declaration != nil {
		add(*declaration)
	}

	for _, file := range s.sourceFiles() {
		s.scanFile(file, pattern, add)
	}
	return results
}

// sourceFiles walks the workspace collecting Bismut sources up to the cap,
// skipping the usual tool and VCS directories.
func (s *Searcher) sourceFiles() []string {
	var files []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if constants.SkipDirectories[base] || (strings.HasPrefix(base, ".") && path != s.root) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != constants.FileExtension {
			return nil
		}
		if len(files) >= s.maxFiles {
			return filepath.SkipAll
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		common.IndexLogger.Warn("workspace walk for references stopped: %v", err)
	}
	return files
}

func (s *Searcher) scanFile(path string, pattern *regexp.Regexp, add func(Location)) {
	f, err := os.Open(path)
	if err != nil {
		common.IndexLogger.Debug("skipping unreadable file %s: %v", path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, m := range pattern.FindAllStringIndex(scanner.Text(), -1) {
			add(Location{File: path, Line: lineNo, Col: m[0] + 1})
		}
	}
}
