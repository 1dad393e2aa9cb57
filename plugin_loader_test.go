package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestPluginLoader_DefaultDir(t *testing.T) {
	if l := NewPluginLoader(""); l.shadowDir != os.TempDir() {
		t.Errorf("expected temp dir, got %q", l.shadowDir)
	}
}

func TestPluginLoader_MissingArtifact(t *testing.T) {
	l := NewPluginLoader(t.TempDir())
	_, err := l.Open(filepath.Join(t.TempDir(), "libmissing.so"))
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}
}

func TestPluginLoader_InvalidArtifactRemovesShadow(t *testing.T) {
	src := filepath.Join(t.TempDir(), "libgame.so")
	if err := os.WriteFile(src, []byte("not a plugin"), 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	shadowDir := t.TempDir()
	_, err := NewPluginLoader(shadowDir).Open(src)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}

	entries, err := os.ReadDir(shadowDir)
	if err != nil {
		t.Fatalf("failed to read shadow dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected shadow copy removed, found %d entries", len(entries))
	}
}

func TestPluginLoader_ShadowNames(t *testing.T) {
	src := filepath.Join(t.TempDir(), "libgame.so")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	l := NewPluginLoader(filepath.Join(t.TempDir(), "shadow"))
	first, err := l.shadow(src, []byte("payload"))
	if err != nil {
		t.Fatalf("shadow() error = %v", err)
	}
	second, err := l.shadow(src, []byte("payload"))
	if err != nil {
		t.Fatalf("shadow() error = %v", err)
	}

	if first == second {
		t.Errorf("expected distinct shadow paths, got %q twice", first)
	}
	if filepath.Ext(first) != ".so" {
		t.Errorf("expected .so extension, got %q", first)
	}
	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("failed to read shadow: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected copied payload, got %q", data)
	}
}

func TestPluginModule_CloseRemovesShadow(t *testing.T) {
	shadow := filepath.Join(t.TempDir(), "libgame.1.1.so")
	if err := os.WriteFile(shadow, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write shadow: %v", err)
	}

	m := &pluginModule{shadow: shadow}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(shadow); !os.IsNotExist(err) {
		t.Error("expected shadow removed")
	}
	if err := m.Close(); err != nil {
		t.Errorf("expected second Close to succeed, got %v", err)
	}
}

func TestPluginLoader_UnchangedContentSkipsOpen(t *testing.T) {
	src := filepath.Join(t.TempDir(), "libgame.so")
	data := []byte("cached build")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	shadowDir := t.TempDir()
	l := NewPluginLoader(shadowDir)

	sum := xxhash.Sum64(data)
	openedPlugins.mu.Lock()
	openedPlugins.byHash[sum] = nil
	openedPlugins.mu.Unlock()
	t.Cleanup(func() {
		openedPlugins.mu.Lock()
		delete(openedPlugins.byHash, sum)
		openedPlugins.mu.Unlock()
	})

	mod, err := l.Open(src)
	if err != nil {
		t.Fatalf("expected cached open to succeed, got %v", err)
	}
	entries, err := os.ReadDir(shadowDir)
	if err != nil {
		t.Fatalf("failed to read shadow dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no shadow copy for cached content, found %d", len(entries))
	}
	if err := mod.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
