package server

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"

	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/server/documents"
	jsonrpc "bismut-lsp/src/server/protocol"
)

// wordAtPosition resolves a request position to the identifier under the
// cursor and its dotted receiver, reading the open buffer when one exists
// and falling back to the file on disk.
func (m *Manager) wordAtPosition(filePath string, position protocol.Position) (word, receiver string) {
	text, ok := m.docs.Text(filePath)
	if !ok {
		content, err := common.SafeReadFile(filePath)
		if err != nil {
			common.ServerLogger.Debug("cannot read %s for position lookup: %v", filePath, err)
			return "", ""
		}
		text = string(content)
	}
	return documents.WordAt(text, int(position.Line), int(position.Character))
}

func (m *Manager) handleHover(id interface{}, params json.RawMessage) error {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
	}
	provider := m.featureProvider()
	if provider == nil {
		return m.writer.WriteResponse(id, nil, nil)
	}

	filePath := p.TextDocument.URI.Filename()
	word, receiver := m.wordAtPosition(filePath, p.Position)
	if word == "" {
		return m.writer.WriteResponse(id, nil, nil)
	}
	return m.writer.WriteResponse(id, provider.Hover(filePath, receiver, word), nil)
}

func (m *Manager) handleDefinition(id interface{}, params json.RawMessage) error {
	var p protocol.DefinitionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
	}
	provider := m.featureProvider()
	if provider == nil {
		return m.writer.WriteResponse(id, nil, nil)
	}

	filePath := p.TextDocument.URI.Filename()
	word, receiver := m.wordAtPosition(filePath, p.Position)
	if word == "" {
		return m.writer.WriteResponse(id, nil, nil)
	}
	loc := provider.Definition(filePath, receiver, word)
	if loc == nil {
		return m.writer.WriteResponse(id, nil, nil)
	}
	return m.writer.WriteResponse(id, []protocol.Location{*loc}, nil)
}

func (m *Manager) handleReferences(id interface{}, params json.RawMessage) error {
	var p protocol.ReferenceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
	}
	provider := m.featureProvider()
	if provider == nil {
		return m.writer.WriteResponse(id, []protocol.Location{}, nil)
	}

	filePath := p.TextDocument.URI.Filename()
	word, _ := m.wordAtPosition(filePath, p.Position)
	if word == "" {
		return m.writer.WriteResponse(id, []protocol.Location{}, nil)
	}
	locs := provider.References(word, p.Context.IncludeDeclaration)
	if locs == nil {
		locs = []protocol.Location{}
	}
	return m.writer.WriteResponse(id, locs, nil)
}

func (m *Manager) handleCompletion(id interface{}, params json.RawMessage) error {
	var p protocol.CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
	}
	provider := m.featureProvider()
	if provider == nil {
		return m.writer.WriteResponse(id, protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil)
	}

	filePath := p.TextDocument.URI.Filename()
	receiver := m.completionReceiver(filePath, p.Position)
	items := provider.Completions(filePath, receiver)
	if items == nil {
		items = []protocol.CompletionItem{}
	}
	return m.writer.WriteResponse(id, protocol.CompletionList{IsIncomplete: false, Items: items}, nil)
}

// completionReceiver finds the dotted receiver preceding the cursor, so
// `p.` and `p.no` both complete against p's type members.
func (m *Manager) completionReceiver(filePath string, position protocol.Position) string {
	text, ok := m.docs.Text(filePath)
	if !ok {
		return ""
	}
	return documents.ReceiverAt(text, int(position.Line), int(position.Character))
}

func (m *Manager) handleDocumentSymbol(id interface{}, params json.RawMessage) error {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
	}
	provider := m.featureProvider()
	if provider == nil {
		return m.writer.WriteResponse(id, []protocol.DocumentSymbol{}, nil)
	}

	outline := provider.DocumentOutline(p.TextDocument.URI.Filename())
	if outline == nil {
		outline = []protocol.DocumentSymbol{}
	}
	return m.writer.WriteResponse(id, outline, nil)
}

func (m *Manager) handleDidOpen(params json.RawMessage) error {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	filePath := p.TextDocument.URI.Filename()
	m.docs.Open(filePath, p.TextDocument.Text, p.TextDocument.Version)

	go m.sched.RequestAnalysis(context.Background(), filePath)
	return nil
}

func (m *Manager) handleDidChange(params json.RawMessage) error {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}

	// Full sync: the last change carries the complete document.
	filePath := p.TextDocument.URI.Filename()
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	m.docs.Update(filePath, text, p.TextDocument.Version)

	if m.cfg.AnalyzeOnType {
		m.sched.RequestAnalysisDebounced(filePath, m.cfg.DebounceDelay())
	}
	return nil
}

func (m *Manager) handleDidSave(params json.RawMessage) error {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	filePath := p.TextDocument.URI.Filename()
	if p.Text != "" {
		m.docs.Update(filePath, p.Text, 0)
	}

	if m.cfg.AnalyzeOnSave {
		go m.sched.RequestAnalysis(context.Background(), filePath)
	}
	return nil
}

func (m *Manager) handleDidClose(params json.RawMessage) error {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return err
	}
	filePath := p.TextDocument.URI.Filename()

	m.docs.Close(filePath)
	m.idx.Remove(filePath)
	m.publisher.Clear(filePath)
	m.sched.Forget(filePath)
	return nil
}
