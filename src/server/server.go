// Package server implements the Bismut language server: a stdio JSON-RPC
// session that keeps open files analyzed and answers editor queries from
// the symbol index.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/config"
	"bismut-lsp/src/diagnostics"
	"bismut-lsp/src/features"
	"bismut-lsp/src/index"
	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/types"
	"bismut-lsp/src/internal/version"
	"bismut-lsp/src/scheduler"
	"bismut-lsp/src/server/documents"
	jsonrpc "bismut-lsp/src/server/protocol"
	"bismut-lsp/src/server/watcher"
)

// Manager owns the session state: configuration, the analyzer client, the
// symbol index, the refresh scheduler, open documents, and the transport
// writer. It implements the protocol message handler, the scheduler's
// result sink, and the diagnostics sink.
type Manager struct {
	cfg       *config.Config
	client    *analyzer.Client
	idx       *index.SymbolIndex
	sched     *scheduler.RefreshScheduler
	publisher *diagnostics.Publisher
	docs      *documents.Manager
	writer    *jsonrpc.Writer

	mu            sync.Mutex
	provider      *features.Provider
	workspaceRoot string
	shuttingDown  bool

	fileWatcher *watcher.SourceWatcher

	compilerMissing bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a language server manager for the given configuration.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		cfg:    cfg,
		idx:    index.NewSymbolIndex(),
		docs:   documents.NewManager(),
		stopCh: make(chan struct{}),
	}
	m.client = analyzer.NewClient(cfg)
	m.publisher = diagnostics.NewPublisher(m)
	m.sched = scheduler.NewRefreshScheduler(m.client, m)
	return m
}

// Serve runs the JSON-RPC session over the given streams until the client
// disconnects or sends exit. Blocks for the whole session.
func (m *Manager) Serve(in io.Reader, out io.Writer) error {
	m.writer = jsonrpc.NewWriter(out)

	if !m.client.CheckBinary() {
		common.ServerLogger.Warn("compiler binary %q not found; analysis will fail until it is installed", m.cfg.CompilerBinary())
		m.compilerMissing = true
	}

	err := jsonrpc.ReadLoop(in, m, m.stopCh)

	m.sched.Close()
	if m.fileWatcher != nil {
		if stopErr := m.fileWatcher.Stop(); stopErr != nil {
			common.ServerLogger.Warn("failed to stop file watcher: %v", stopErr)
		}
	}
	return err
}

// Stop ends the session from outside the read loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Apply ingests a successful snapshot and republishes its diagnostics.
// Called by the scheduler after every completed analysis.
func (m *Manager) Apply(result *analyzer.AnalysisResult) {
	m.idx.Ingest(result)
	m.publisher.Publish(result)
}

// PublishDiagnostics sends a textDocument/publishDiagnostics notification.
func (m *Manager) PublishDiagnostics(fileURI uri.URI, diags []protocol.Diagnostic) {
	if m.writer == nil {
		return
	}
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	err := m.writer.WriteNotification(types.MethodPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         fileURI,
		Diagnostics: diags,
	})
	if err != nil {
		common.ServerLogger.Error("failed to publish diagnostics for %s: %v", fileURI, err)
	}
}

// HandleRequest routes a client request to its handler.
func (m *Manager) HandleRequest(method string, id interface{}, params json.RawMessage) error {
	switch method {
	case types.MethodInitialize:
		return m.handleInitialize(id, params)
	case types.MethodShutdown:
		m.mu.Lock()
		m.shuttingDown = true
		m.mu.Unlock()
		return m.writer.WriteResponse(id, nil, nil)
	case types.MethodTextDocumentHover:
		return m.handleHover(id, params)
	case types.MethodTextDocumentDefinition:
		return m.handleDefinition(id, params)
	case types.MethodTextDocumentReferences:
		return m.handleReferences(id, params)
	case types.MethodTextDocumentCompletion:
		return m.handleCompletion(id, params)
	case types.MethodTextDocumentDocumentSymbol:
		return m.handleDocumentSymbol(id, params)
	default:
		common.ServerLogger.Debug("unsupported request method: %s", method)
		return m.writer.WriteResponse(id, nil, jsonrpc.NewMethodNotFoundError(method))
	}
}

// HandleNotification routes a client notification to its handler.
func (m *Manager) HandleNotification(method string, params json.RawMessage) error {
	switch method {
	case types.MethodInitialized:
		common.ServerLogger.Info("session initialized")
		return nil
	case types.MethodExit:
		m.Stop()
		return nil
	case types.MethodTextDocumentDidOpen:
		return m.handleDidOpen(params)
	case types.MethodTextDocumentDidChange:
		return m.handleDidChange(params)
	case types.MethodTextDocumentDidSave:
		return m.handleDidSave(params)
	case types.MethodTextDocumentDidClose:
		return m.handleDidClose(params)
	default:
		common.ServerLogger.Debug("ignoring notification: %s", method)
		return nil
	}
}

// handleInitialize records the workspace root, builds the feature provider
// over it, starts the out-of-editor file watcher, and reports capabilities.
func (m *Manager) handleInitialize(id interface{}, params json.RawMessage) error {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return m.writer.WriteResponse(id, nil, jsonrpc.NewInvalidParamsError(err.Error()))
		}
	}

	root := ""
	if p.RootURI != "" {
		root = p.RootURI.Filename()
	} else if p.RootPath != "" {
		root = p.RootPath
	}
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		}
	}

	m.mu.Lock()
	m.workspaceRoot = root
	m.provider = features.NewProvider(m.idx, root)
	m.mu.Unlock()
	common.ServerLogger.Info("workspace root: %s", root)

	m.startWatcher(root)

	result := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    int(protocol.TextDocumentSyncKindFull),
				"save":      map[string]interface{}{"includeText": false},
			},
			"hoverProvider":          true,
			"definitionProvider":     true,
			"referencesProvider":     true,
			"documentSymbolProvider": true,
			"completionProvider": map[string]interface{}{
				"triggerCharacters": []string{"."},
			},
		},
		"serverInfo": map[string]interface{}{
			"name":    "bismut-lsp",
			"version": version.Version,
		},
	}
	if err := m.writer.WriteResponse(id, result, nil); err != nil {
		return err
	}
	m.notifyCompilerMissing()
	return nil
}

// notifyCompilerMissing surfaces a missing compiler binary to the user once
// at session start, not on every analysis attempt. MessageType 1 is Error.
func (m *Manager) notifyCompilerMissing() {
	if !m.compilerMissing {
		return
	}
	err := m.writer.WriteNotification(types.MethodWindowShowMessage, map[string]interface{}{
		"type": 1,
		"message": fmt.Sprintf("Bismut compiler %q was not found. Set compiler_path in the configuration to enable analysis.",
			m.cfg.CompilerBinary()),
	})
	if err != nil {
		common.ServerLogger.Error("failed to send show message notification: %v", err)
	}
}

// startWatcher begins watching the workspace for out-of-editor changes.
func (m *Manager) startWatcher(root string) {
	if root == "" {
		return
	}
	w, err := watcher.NewSourceWatcher(m.onFileChanges)
	if err != nil {
		common.ServerLogger.Warn("file watcher unavailable: %v", err)
		return
	}
	if err := w.AddPath(root); err != nil {
		common.ServerLogger.Warn("failed to watch %s: %v", root, err)
		_ = w.Stop()
		return
	}
	w.Start()
	m.fileWatcher = w
}

// onFileChanges reacts to debounced disk events. Open buffers are left
// alone, their didChange/didSave traffic is authoritative.
func (m *Manager) onFileChanges(events []watcher.ChangeEvent) {
	for _, event := range events {
		switch event.Operation {
		case "remove", "rename":
			m.idx.Remove(event.Path)
			m.publisher.Clear(event.Path)
			m.sched.Forget(event.Path)
		default:
			if m.docs.IsOpen(event.Path) {
				continue
			}
			m.sched.RequestAnalysis(context.Background(), event.Path)
		}
	}
}

// featureProvider returns the provider, or nil before initialize.
func (m *Manager) featureProvider() *features.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}
