package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWatcher_Path(t *testing.T) {
	w := NewFileWatcher("/opt/game/../game/libgame.so")
	if w.Path() != "/opt/game/libgame.so" {
		t.Errorf("expected cleaned path, got %q", w.Path())
	}
}

func TestFileWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libgame.so")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("failed to rewrite artifact: %v", err)
	}

	select {
	case c := <-changes:
		if c.Err != nil {
			t.Fatalf("unexpected watcher error: %v", c.Err)
		}
		if c.Path != path {
			t.Errorf("expected path %q, got %q", path, c.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libgame.so")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "libother.so"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write sibling: %v", err)
	}

	select {
	case c := <-changes:
		t.Fatalf("unexpected change for sibling: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcher_SurvivesReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libgame.so")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove artifact: %v", err)
	}
	drain(changes, 200*time.Millisecond)

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("failed to recreate artifact: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change after replace")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "libgame.so")
	if _, err := NewFileWatcher(path).Watch(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileWatcher_ClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libgame.so")

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for channel close")
		}
	}
}

// drain discards changes until none arrive for quiet.
func drain(changes <-chan Change, quiet time.Duration) {
	for {
		select {
		case <-changes:
		case <-time.After(quiet):
			return
		}
	}
}
