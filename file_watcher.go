package persist

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single file for any filesystem event.
//
// The watch is placed on the file's parent directory and filtered to the
// file's name. Linkers commonly replace an artifact by removing and
// recreating it, which silently drops a watch placed on the file itself.
type FileWatcher struct {
	path string
}

// NewFileWatcher creates a new FileWatcher for the given file path.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{path: filepath.Clean(path)}
}

// Path returns the watched file path.
func (w *FileWatcher) Path() string {
	return w.path
}

// Watch begins watching the file and returns a channel that emits a Change
// for every event on it. Events are not debounced.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	out := make(chan Change)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Ignore siblings of the artifact
				if filepath.Clean(event.Name) != w.path {
					continue
				}

				select {
				case out <- Change{Path: w.path, Op: event.Op.String()}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Report and continue watching
				select {
				case out <- Change{Path: w.path, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ensure FileWatcher implements Watcher.
var _ Watcher = (*FileWatcher)(nil)
