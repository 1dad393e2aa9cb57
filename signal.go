package persist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// DefaultErrorHistorySize is the number of recent watcher errors a Signal retains.
const DefaultErrorHistorySize = 16

// Signal bridges asynchronous artifact changes to a flag polled once per tick.
//
// The flag is raised only by the watcher goroutine and cleared only by the
// harness at the start of a load iteration. Reading it never clears it, so
// a change arriving mid-run is always seen by a later tick of the same run,
// and any number of changes before the next load collapse into one reload.
type Signal struct {
	mu      sync.Mutex
	pending bool
	watched bool

	raised atomic.Uint64
	errors *errorRing
}

// NewSignal creates a Signal with nothing pending.
func NewSignal() *Signal {
	return &Signal{errors: newErrorRing(DefaultErrorHistorySize)}
}

// Raise marks a reload as pending.
func (s *Signal) Raise() {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
	s.raised.Add(1)
}

// Pending reports whether a reload is pending. It does not clear the flag.
func (s *Signal) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Clear drops any pending reload. Only the harness calls this, at the start
// of each load iteration.
func (s *Signal) Clear() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// Raised returns how many changes have raised the flag since creation.
func (s *Signal) Raised() uint64 {
	return s.raised.Load()
}

// Errors returns recent watcher errors, oldest first.
func (s *Signal) Errors() []error {
	return s.errors.all()
}

// Watch starts w and raises the flag for every change it emits until the
// change channel closes. Watch may only be called once per Signal.
func (s *Signal) Watch(ctx context.Context, w Watcher) error {
	s.mu.Lock()
	if s.watched {
		s.mu.Unlock()
		return fmt.Errorf("signal already watching")
	}
	s.watched = true
	s.mu.Unlock()

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	go func() {
		for c := range changes {
			s.handle(ctx, c)
		}
	}()
	return nil
}

// handle applies a single change.
func (s *Signal) handle(ctx context.Context, c Change) {
	if c.Err != nil {
		s.errors.push(c.Err)
		capitan.Emit(ctx, WatcherFailed,
			KeyPath.Field(c.Path),
			KeyError.Field(c.Err.Error()),
		)
		return
	}

	s.Raise()
	capitan.Emit(ctx, ReloadRequested,
		KeyPath.Field(c.Path),
	)
}
