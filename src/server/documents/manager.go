// Package documents tracks open editor buffers so position-based queries
// see unsaved text instead of the on-disk version.
package documents

import (
	"strings"
	"sync"
)

// Document is one open buffer.
type Document struct {
	Path    string
	Version int32
	Text    string
}

// Manager stores open documents keyed by file path. Sync is full-text:
// each change replaces the document wholesale.
type Manager struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewManager creates an empty document manager.
func NewManager() *Manager {
	return &Manager{docs: make(map[string]*Document)}
}

// Open registers a buffer with its initial content.
func (m *Manager) Open(path, text string, version int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = &Document{Path: path, Version: version, Text: text}
}

// Update replaces a buffer's content. Unknown paths are opened implicitly
// so a missed didOpen does not wedge the session.
func (m *Manager) Update(path, text string, version int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		m.docs[path] = &Document{Path: path, Version: version, Text: text}
		return
	}
	doc.Text = text
	doc.Version = version
}

// Close drops a buffer.
func (m *Manager) Close(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
}

// Text returns a buffer's current content.
func (m *Manager) Text(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[path]
	if !ok {
		return "", false
	}
	return doc.Text, true
}

// IsOpen reports whether path has an open buffer.
func (m *Manager) IsOpen(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[path]
	return ok
}

// Paths returns the open buffer paths.
func (m *Manager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.docs))
	for path := range m.docs {
		paths = append(paths, path)
	}
	return paths
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// WordAt extracts the identifier under the zero-based position, plus the
// dotted receiver immediately before it (`p` for the cursor on `x` in
// `p.x`). Both come back empty when the position is not on a word.
func WordAt(text string, line, character int) (word, receiver string) {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return "", ""
	}
	current := lines[line]
	col := character
	if col > len(current) {
		col = len(current)
	}

	// A cursor at the end of a word sits one past its last character.
	if col == len(current) || !isWordChar(current[col]) {
		if col == 0 || !isWordChar(current[col-1]) {
			return "", ""
		}
		col--
	}

	start := col
	for start > 0 && isWordChar(current[start-1]) {
		start--
	}
	end := col
	for end < len(current) && isWordChar(current[end]) {
		end++
	}
	word = current[start:end]

	if start >= 2 && current[start-1] == '.' {
		recvEnd := start - 1
		recvStart := recvEnd
		for recvStart > 0 && isWordChar(current[recvStart-1]) {
			recvStart--
		}
		receiver = current[recvStart:recvEnd]
	}
	return word, receiver
}

// ReceiverAt finds the dotted receiver a completion at the zero-based
// position would complete against: `p` for a cursor after `p.` or inside
// the partial member in `p.no`. Empty when the cursor is not in a member
// access.
func ReceiverAt(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	current := lines[line]
	col := character
	if col > len(current) {
		col = len(current)
	}

	// Skip back over the partially typed member name.
	i := col
	for i > 0 && isWordChar(current[i-1]) {
		i--
	}
	if i == 0 || current[i-1] != '.' {
		return ""
	}

	end := i - 1
	start := end
	for start > 0 && isWordChar(current[start-1]) {
		start--
	}
	return current[start:end]
}
