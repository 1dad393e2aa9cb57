package persist

import "context"

// Change describes one filesystem notification for the watched artifact.
// When Err is set the change carries a watcher error instead of an event.
type Change struct {
	Path string
	Op   string
	Err  error
}

// Watcher observes the module artifact and emits a Change for every event.
type Watcher interface {
	// Watch begins observing and returns a channel of changes. The channel
	// is closed when the context is canceled or the watcher fails
	// unrecoverably. Unlike a config source, nothing is emitted on start:
	// the artifact's current state is loaded by the harness directly.
	Watch(ctx context.Context) (<-chan Change, error)
}
