package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/persist"
	persisttest "github.com/zoobzio/persist/testing"
)

type score struct {
	Count int `msgpack:"count" cbor:"count"`
}

func TestHarness_FileWatcher_ReloadsOnRebuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, persist.LibraryName("game"))
	if err := os.WriteFile(path, []byte("build 1"), 0o755); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	var restored atomic.Int64
	rebuild := make(chan struct{}, 1)

	entry := func(ac *persist.AppContext) {
		persist.Preserve(ac, score{})
		gen := ac.Generation()
		ac.AddSystem("count", func(_ context.Context, app *persist.App) error {
			s := persist.MustResource[score](app)
			if gen > 1 {
				restored.Store(int64(s.Count))
				app.RequestExit()
				return nil
			}
			s.Count++
			if s.Count == 3 {
				rebuild <- struct{}{}
			}
			return nil
		})
		ac.SetRunner(persist.LoopRunner(10*time.Millisecond, nil))
		ac.Run()
	}

	h := persist.New(path,
		persist.WithLoader(persist.NewStaticLoader(entry)),
		persist.WithCodec(persist.CBORCodec{}),
		persist.WithHaltOnExit(),
	)

	go func() {
		<-rebuild
		// Linkers usually replace the artifact rather than rewrite it.
		os.Remove(path)
		os.WriteFile(path, []byte("build 2"), 0o755)
	}()

	done := make(chan error, 1)
	go func() {
		done <- h.Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("harness did not reload")
	}

	if got := restored.Load(); got < 3 {
		t.Errorf("expected restored count of at least 3, got %d", got)
	}
	if h.Loads() < 2 {
		t.Errorf("expected a reload, got %d loads", h.Loads())
	}
}

func TestHarness_FileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, persist.LibraryName("game"))
	if err := os.WriteFile(path, []byte("build 1"), 0o755); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int64
	entry := func(ac *persist.AppContext) {
		ac.AddSystem("tick", func(context.Context, *persist.App) error {
			ticks.Add(1)
			return nil
		})
		ac.SetRunner(persist.LoopRunner(10*time.Millisecond, nil))
		ac.Run()
	}

	h := persist.New(path, persist.WithLoader(persist.NewStaticLoader(entry)))
	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx)
	}()

	if !persisttest.WaitFor(t, time.Second, func() bool { return ticks.Load() > 0 }) {
		t.Fatal("module did not start")
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write sibling: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if h.Signal().Pending() {
		t.Error("expected sibling write to be ignored")
	}
	if h.Loads() != 1 {
		t.Errorf("expected a single load, got %d", h.Loads())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("harness did not stop")
	}
}
