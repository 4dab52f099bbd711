package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/patchview/internal/adapters/fs"
	"github.com/bft-labs/patchview/internal/domain"
)

func TestWatcher_RefreshesOnNewChunk(t *testing.T) {
	dir := t.TempDir()
	chunks, err := fs.NewChunkDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := chunks.Save(ctx, batch(1, 10, 15, 20)); err != nil {
		t.Fatal(err)
	}

	results := make(chan *Result, 8)
	p := NewPipeline(PipelineConfig{Reconstruct: true}, chunks, mockLogger{})
	w := NewWatcher(WatcherConfig{
		Dir:      dir,
		Match:    func(name string) bool { _, ok := chunks.Matches(name); return ok },
		Debounce: 20 * time.Millisecond,
	}, p, mockLogger{}, func(r *Result) { results <- r })

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitResult(t, results)
	if first.Full.Len() != 3 {
		t.Fatalf("initial Len() = %d, want 3", first.Full.Len())
	}

	// Files that are not chunks are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := chunks.Save(ctx, batch(2, 3, 8)); err != nil {
		t.Fatal(err)
	}

	second := waitResult(t, results)
	if second.Batches != 2 {
		t.Fatalf("Batches = %d, want 2", second.Batches)
	}
	want := []int64{10, 15, 20, 23, 28}
	if got := logicalIndices(second.Full.Records()); !sameInts(got, want) {
		t.Errorf("full = %v, want %v", got, want)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	p := NewPipeline(PipelineConfig{}, &memSource{}, mockLogger{})
	w := NewWatcher(WatcherConfig{Dir: filepath.Join(t.TempDir(), "absent")}, p, mockLogger{}, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() expected error for missing directory")
	}
}

func TestWatcher_InitialBuildFailure(t *testing.T) {
	p := NewPipeline(PipelineConfig{}, &memSource{batches: nil}, mockLogger{})
	w := NewWatcher(WatcherConfig{Dir: t.TempDir()}, p, mockLogger{}, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() expected error for empty source")
	}
}

// gateSource blocks its second Batches call until release is closed.
type gateSource struct {
	*memSource
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gateSource) Batches(ctx context.Context) ([]domain.Batch, error) {
	if g.calls.Add(1) == 2 {
		close(g.entered)
		<-g.release
	}
	return g.memSource.Batches(ctx)
}

func TestWatcher_RunWaitsForRunningRefresh(t *testing.T) {
	dir := t.TempDir()
	src := &gateSource{
		memSource: &memSource{batches: []domain.Batch{batch(1, 1, 2)}},
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		emitted int
		active  atomic.Bool
	)
	handler := func(*Result) {
		if !active.CompareAndSwap(false, true) {
			t.Error("handler calls overlap")
		}
		mu.Lock()
		emitted++
		mu.Unlock()
		active.Store(false)
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return emitted
	}

	p := NewPipeline(PipelineConfig{Reconstruct: true}, src, mockLogger{})
	w := NewWatcher(WatcherConfig{Dir: dir, Debounce: 10 * time.Millisecond}, p, mockLogger{}, handler)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for initial series")
		case <-time.After(5 * time.Millisecond):
		}
	}

	src.add(batch(2, 3))
	if err := os.WriteFile(filepath.Join(dir, "rawData-2.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not start")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Run() returned while a refresh was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(src.release)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	after := count()
	if after != 2 {
		t.Errorf("handler calls before Run returned = %d, want 2", after)
	}
	time.Sleep(50 * time.Millisecond)
	if got := count(); got != after {
		t.Errorf("handler called %d times after Run returned", got-after)
	}
}

func waitResult(t *testing.T, results <-chan *Result) *Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for series")
		return nil
	}
}

