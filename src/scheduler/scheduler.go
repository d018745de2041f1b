// Package scheduler debounces and coalesces re-analysis requests so rapid
// keystroke-triggered refreshes cannot exhaust the external compiler.
package scheduler

import (
	"context"
	"sync"
	"time"

	"bismut-lsp/src/analyzer"
	"bismut-lsp/src/internal/common"
)

// AnalysisSource produces a fresh snapshot for a file, or nil on failure.
type AnalysisSource interface {
	Analyze(ctx context.Context, filePath string) *analyzer.AnalysisResult
}

// ResultSink receives each successful snapshot. The server wires a sink
// that feeds the symbol index and the diagnostics publisher.
type ResultSink interface {
	Apply(result *analyzer.AnalysisResult)
}

// RefreshScheduler serializes analysis per file: debounced requests for a
// file reset that file's timer, and at most one analysis per file is ever
// in flight. A request arriving mid-flight is answered from the cached
// result instead of spawning a second process, which also keeps results
// applying in completion order for each file.
type RefreshScheduler struct {
	source AnalysisSource
	sink   ResultSink

	mu       sync.Mutex
	timers   map[string]*time.Timer
	inFlight map[string]bool
	latest   map[string]*analyzer.AnalysisResult
	closed   bool

	wg sync.WaitGroup
}

// NewRefreshScheduler creates a scheduler over the given source and sink.
func NewRefreshScheduler(source AnalysisSource, sink ResultSink) *RefreshScheduler {
	return &RefreshScheduler{
		source:   source,
		sink:     sink,
		timers:   make(map[string]*time.Timer),
		inFlight: make(map[string]bool),
		latest:   make(map[string]*analyzer.AnalysisResult),
	}
}

// RequestAnalysis analyzes filePath now, blocking until completion. If an
// analysis for the same file is already in flight the call coalesces:
// it returns the most recent cached result without starting a second
// invocation. A failed analysis leaves the previous snapshot untouched
// and returns it.
func (s *RefreshScheduler) RequestAnalysis(ctx context.Context, filePath string) *analyzer.AnalysisResult {
	s.mu.Lock()
	if s.closed {
		cached := s.latest[filePath]
		s.mu.Unlock()
		return cached
	}
	if s.inFlight[filePath] {
		cached := s.latest[filePath]
		s.mu.Unlock()
		common.AnalyzerLogger.Debug("analysis already in flight for %s, serving cached result", filePath)
		return cached
	}
	s.inFlight[filePath] = true
	s.mu.Unlock()

	result := s.source.Analyze(ctx, filePath)

	if result != nil {
		s.mu.Lock()
		s.latest[filePath] = result
		s.mu.Unlock()
		if s.sink != nil {
			s.sink.Apply(result)
		}
	}

	// The file stays marked in flight until the sink has applied the
	// result, so a request arriving during the apply still coalesces and
	// cannot start an invocation whose newer result this one would then
	// overwrite.
	s.mu.Lock()
	delete(s.inFlight, filePath)
	cached := s.latest[filePath]
	s.mu.Unlock()
	return cached
}

// RequestAnalysisDebounced schedules an analysis of filePath after delay,
// cancelling any pending timer for the same file so only the most recent
// request within the window survives. Timers are independent across files.
func (s *RefreshScheduler) RequestAnalysisDebounced(filePath string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if timer, ok := s.timers[filePath]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
	}
	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		// Only remove our own registration; a newer timer may have
		// replaced this entry between firing and acquiring the lock.
		if s.timers[filePath] == timer {
			delete(s.timers, filePath)
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.RequestAnalysis(context.Background(), filePath)
	})
	s.timers[filePath] = timer
}

// Forget drops the cached result for a closed file. Pending debounce
// timers for the file are cancelled as well.
func (s *RefreshScheduler) Forget(filePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[filePath]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, filePath)
	}
	delete(s.latest, filePath)
}

// Close cancels all pending timers and waits for in-flight timer callbacks.
// An in-flight analysis is not cancelled; the timeout inside the analyzer
// client is the only forced termination path.
func (s *RefreshScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for file, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, file)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
