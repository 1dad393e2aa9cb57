package persist

import "context"

// ChannelWatcher turns a caller-owned Change channel into a Watcher. Build
// tools that already know when an artifact was written can push changes
// through it, and tests use it in place of the filesystem.
type ChannelWatcher struct {
	src    <-chan Change
	direct bool
	path   string
}

// NewChannelWatcher creates a ChannelWatcher that relays changes through
// its own goroutine, stopping when ctx is canceled.
func NewChannelWatcher(src <-chan Change) *ChannelWatcher {
	return &ChannelWatcher{src: src}
}

// NewSyncChannelWatcher creates a ChannelWatcher that hands src to the
// Signal directly. The channel then outlives ctx until its owner closes it.
func NewSyncChannelWatcher(src <-chan Change) *ChannelWatcher {
	return &ChannelWatcher{src: src, direct: true}
}

// ForPath fills in path on every relayed change that arrives without one.
// Changes are then always relayed, even by a sync watcher.
func (w *ChannelWatcher) ForPath(path string) *ChannelWatcher {
	w.path = path
	return w
}

// Watch returns the channel the Signal reads changes from.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan Change, error) {
	if w.direct && w.path == "" {
		return w.src, nil
	}

	out := make(chan Change)
	go w.relay(ctx, out)
	return out, nil
}

func (w *ChannelWatcher) relay(ctx context.Context, out chan<- Change) {
	defer close(out)
	for {
		var c Change
		select {
		case <-ctx.Done():
			return
		case next, ok := <-w.src:
			if !ok {
				return
			}
			c = next
		}

		if c.Path == "" {
			c.Path = w.path
		}

		select {
		case out <- c:
		case <-ctx.Done():
			return
		}
	}
}

// Ensure ChannelWatcher implements Watcher.
var _ Watcher = (*ChannelWatcher)(nil)
