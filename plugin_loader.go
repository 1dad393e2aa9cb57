package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// PluginLoader opens module artifacts built with -buildmode=plugin.
//
// The Go runtime never unmaps a plugin. It caches plugins by file path, and
// it refuses to open a second file carrying a plugin path it has already
// loaded. Each artifact is therefore hashed first. Content seen before is
// served from the plugin opened for it. New content is copied to a unique
// shadow file and that copy is opened, so a rebuilt artifact at an
// unchanged path is picked up. Close removes the shadow file.
type PluginLoader struct {
	shadowDir string
	opened    atomic.Int64
}

// openedPlugins maps artifact content hashes to the plugins opened for
// them. The runtime's plugin table is process-wide, and so is this.
var openedPlugins = struct {
	mu     sync.Mutex
	byHash map[uint64]*plugin.Plugin
}{byHash: make(map[uint64]*plugin.Plugin)}

// NewPluginLoader creates a loader that writes shadow copies into dir.
// An empty dir uses os.TempDir().
func NewPluginLoader(dir string) *PluginLoader {
	if dir == "" {
		dir = os.TempDir()
	}
	return &PluginLoader{shadowDir: dir}
}

// Open loads the artifact at path, reusing the already opened plugin when
// the content is unchanged.
func (l *PluginLoader) Open(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	sum := xxhash.Sum64(data)

	openedPlugins.mu.Lock()
	defer openedPlugins.mu.Unlock()

	if p, ok := openedPlugins.byHash[sum]; ok {
		return &pluginModule{plugin: p}, nil
	}

	shadow, err := l.shadow(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	p, err := plugin.Open(shadow)
	if err != nil {
		os.Remove(shadow)
		if strings.Contains(err.Error(), "already loaded") {
			return nil, fmt.Errorf("%w: %s: plugin path already loaded from different bytes; "+
				"the main package sources are unchanged or the plugin was built with a fixed -pluginpath: %w",
				ErrLoad, path, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	openedPlugins.byHash[sum] = p
	return &pluginModule{plugin: p, shadow: shadow}, nil
}

// shadow writes data to a fresh file in the shadow directory.
func (l *PluginLoader) shadow(path string, data []byte) (string, error) {
	if err := os.MkdirAll(l.shadowDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s.%d.%d%s", strings.TrimSuffix(base, ext), os.Getpid(), l.opened.Add(1), ext)
	target := filepath.Join(l.shadowDir, name)

	if err := os.WriteFile(target, data, 0o755); err != nil {
		os.Remove(target)
		return "", err
	}
	return target, nil
}

// pluginModule is one opened plugin generation. A generation served from
// the content cache has no shadow file of its own.
type pluginModule struct {
	plugin *plugin.Plugin
	shadow string
}

// Entry resolves EntrySymbol from the plugin.
func (m *pluginModule) Entry() (EntryFunc, error) {
	return resolveEntry(func(name string) (any, error) {
		return m.plugin.Lookup(name)
	})
}

// Close removes the shadow copy, if any.
func (m *pluginModule) Close() error {
	if m.shadow == "" {
		return nil
	}
	if err := os.Remove(m.shadow); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Ensure PluginLoader implements Loader.
var _ Loader = (*PluginLoader)(nil)
