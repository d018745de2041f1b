package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bismut-lsp/src/analyzer"
)

// fakeSource counts invocations and can block to simulate a slow analyzer.
type fakeSource struct {
	calls   int32
	block   chan struct{}
	results map[string]*analyzer.AnalysisResult
}

func newFakeSource() *fakeSource {
	return &fakeSource{results: make(map[string]*analyzer.AnalysisResult)}
}

func (f *fakeSource) set(file string) *analyzer.AnalysisResult {
	r := &analyzer.AnalysisResult{Success: true, File: file}
	f.results[file] = r
	return r
}

func (f *fakeSource) Analyze(ctx context.Context, filePath string) *analyzer.AnalysisResult {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	return f.results[filePath]
}

func (f *fakeSource) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

// recordingSink collects applied results.
type recordingSink struct {
	mu      sync.Mutex
	applied []*analyzer.AnalysisResult
}

func (r *recordingSink) Apply(result *analyzer.AnalysisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, result)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func TestRequestAnalysisAppliesResult(t *testing.T) {
	source := newFakeSource()
	want := source.set("/work/main.bi")
	sink := &recordingSink{}
	s := NewRefreshScheduler(source, sink)
	defer s.Close()

	got := s.RequestAnalysis(context.Background(), "/work/main.bi")
	if got != want {
		t.Fatalf("expected the fresh result, got %+v", got)
	}
	if sink.count() != 1 {
		t.Fatalf("result should be pushed to the sink once, got %d", sink.count())
	}
}

func TestFailedAnalysisKeepsPreviousResult(t *testing.T) {
	source := newFakeSource()
	want := source.set("/work/main.bi")
	sink := &recordingSink{}
	s := NewRefreshScheduler(source, sink)
	defer s.Close()

	s.RequestAnalysis(context.Background(), "/work/main.bi")

	// Simulate a failing analyzer run.
	delete(source.results, "/work/main.bi")
	got := s.RequestAnalysis(context.Background(), "/work/main.bi")
	if got != want {
		t.Fatalf("failed analysis must keep the prior snapshot, got %+v", got)
	}
	if sink.count() != 1 {
		t.Fatalf("failed analysis must not reach the sink, applied %d times", sink.count())
	}
}

func TestCoalescingSingleInvocation(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	source.block = make(chan struct{})
	s := NewRefreshScheduler(source, &recordingSink{})
	defer s.Close()

	started := make(chan struct{})
	done := make(chan *analyzer.AnalysisResult, 1)
	go func() {
		close(started)
		done <- s.RequestAnalysis(context.Background(), "/work/main.bi")
	}()
	<-started
	// Wait until the first request is actually in flight.
	for source.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Second request while the first is in flight: no second invocation.
	if got := s.RequestAnalysis(context.Background(), "/work/main.bi"); got != nil {
		t.Fatalf("no cached result exists yet, got %+v", got)
	}
	if source.callCount() != 1 {
		t.Fatalf("coalescing broken: %d invocations", source.callCount())
	}

	close(source.block)
	<-done
}

// blockingSink parks inside Apply until released, exposing the window
// between analysis completion and the snapshot reaching the index.
type blockingSink struct {
	recordingSink
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSink) Apply(result *analyzer.AnalysisResult) {
	b.entered <- struct{}{}
	<-b.release
	b.recordingSink.Apply(result)
}

func TestRequestDuringSinkApplyStillCoalesces(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	sink := &blockingSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewRefreshScheduler(source, sink)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		s.RequestAnalysis(context.Background(), "/work/main.bi")
		close(done)
	}()
	<-sink.entered

	// The first request is parked inside the sink apply. A request now
	// must coalesce; a second invocation here could apply a newer
	// snapshot that the parked goroutine would then overwrite.
	got := s.RequestAnalysis(context.Background(), "/work/main.bi")
	if got == nil || got.File != "/work/main.bi" {
		t.Fatalf("coalesced request should serve the cached result, got %+v", got)
	}
	if source.callCount() != 1 {
		t.Fatalf("request during sink apply started a second invocation: %d calls", source.callCount())
	}

	close(sink.release)
	<-done
	if sink.count() != 1 {
		t.Fatalf("expected one applied result, got %d", sink.count())
	}
}

func TestCoalescingIndependentAcrossFiles(t *testing.T) {
	source := newFakeSource()
	source.set("/work/a.bi")
	source.set("/work/b.bi")
	s := NewRefreshScheduler(source, &recordingSink{})
	defer s.Close()

	s.RequestAnalysis(context.Background(), "/work/a.bi")
	s.RequestAnalysis(context.Background(), "/work/b.bi")
	if source.callCount() != 2 {
		t.Fatalf("different files must not coalesce: %d invocations", source.callCount())
	}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	sink := &recordingSink{}
	s := NewRefreshScheduler(source, sink)
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.RequestAnalysisDebounced("/work/main.bi", 50*time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := source.callCount(); got != 1 {
		t.Fatalf("burst of debounced requests should trigger exactly one analysis, got %d", got)
	}
}

func TestDebouncePerFileTimers(t *testing.T) {
	source := newFakeSource()
	source.set("/work/a.bi")
	source.set("/work/b.bi")
	sink := &recordingSink{}
	s := NewRefreshScheduler(source, sink)
	defer s.Close()

	s.RequestAnalysisDebounced("/work/a.bi", 20*time.Millisecond)
	s.RequestAnalysisDebounced("/work/b.bi", 20*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if source.callCount() != 2 {
		t.Fatalf("per-file debounce should run both files, got %d invocations", source.callCount())
	}
}

func TestFiredTimerKeepsReplacementRegistration(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	s := NewRefreshScheduler(source, &recordingSink{})
	defer s.Close()

	s.RequestAnalysisDebounced("/work/main.bi", 10*time.Millisecond)

	// Hold the lock across the firing so the callback runs after the
	// file's entry has been replaced by a newer timer. The callback must
	// leave the replacement registered, otherwise the next debounced
	// request cannot reset it and two analyses fire.
	replacement := time.AfterFunc(time.Hour, func() {})
	defer replacement.Stop()
	s.mu.Lock()
	s.timers["/work/main.bi"] = replacement
	time.Sleep(50 * time.Millisecond)
	s.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for source.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	s.mu.Lock()
	still := s.timers["/work/main.bi"]
	s.mu.Unlock()
	if still != replacement {
		t.Fatal("fired timer removed the replacement registration")
	}
}

func TestForgetCancelsPendingTimer(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	s := NewRefreshScheduler(source, &recordingSink{})
	defer s.Close()

	s.RequestAnalysisDebounced("/work/main.bi", 100*time.Millisecond)
	s.Forget("/work/main.bi")

	time.Sleep(200 * time.Millisecond)
	if source.callCount() != 0 {
		t.Fatalf("forgotten file should not be analyzed, got %d invocations", source.callCount())
	}
}

func TestCloseIsIdempotentAndStopsTimers(t *testing.T) {
	source := newFakeSource()
	source.set("/work/main.bi")
	s := NewRefreshScheduler(source, &recordingSink{})

	s.RequestAnalysisDebounced("/work/main.bi", time.Hour)
	s.Close()
	s.Close()

	if source.callCount() != 0 {
		t.Fatalf("closed scheduler must not fire timers, got %d invocations", source.callCount())
	}
	if got := s.RequestAnalysis(context.Background(), "/work/main.bi"); got != nil {
		t.Fatalf("closed scheduler should serve only cached data, got %+v", got)
	}
}
