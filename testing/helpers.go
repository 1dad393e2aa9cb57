// Package testing provides test utilities for modules driven by persist.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/persist"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// Session simulates consecutive loads of a module in-process, sharing one
// Store and Signal the way a Harness does.
type Session struct {
	Store  *persist.Store
	Signal *persist.Signal
	Codec  persist.Codec

	generation int
}

// NewSession creates a Session with an empty Store. A nil codec uses
// persist.MsgpackCodec.
func NewSession(codec persist.Codec) *Session {
	return &Session{
		Store:  persist.NewStore(),
		Signal: persist.NewSignal(),
		Codec:  codec,
	}
}

// Next clears the signal and returns a fresh AppContext for the next load.
func (s *Session) Next(ctx context.Context) *persist.AppContext {
	s.Signal.Clear()
	s.generation++
	return persist.NewAppContext(ctx, s.Store, s.Signal, s.Codec,
		persist.WithGeneration(s.generation),
	)
}

// Generations returns how many contexts Next has handed out.
func (s *Session) Generations() int {
	return s.generation
}

// Reload raises the signal and ticks ac once so its probe captures every
// preserved resource. It fails the test if the capture did not happen.
func (s *Session) Reload(t *testing.T, ac *persist.AppContext) {
	t.Helper()
	s.Signal.Raise()
	if err := ac.App().Tick(context.Background()); err != nil {
		t.Fatalf("reload tick failed: %v", err)
	}
	if err := ac.Err(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	RequireProbeState(t, ac, persist.ProbeReloading)
}

// RequireProbeState fails the test immediately if the probe is not in the expected state.
func RequireProbeState(t *testing.T, ac *persist.AppContext, expected persist.ProbeState) {
	t.Helper()
	if got := ac.ProbeState(); got != expected {
		t.Fatalf("expected probe state %s, got %s", expected, got)
	}
}

// RequireResource fails the test if the resource of type T is absent or
// doesn't satisfy check.
func RequireResource[T any](t *testing.T, app *persist.App, check func(T) bool) {
	t.Helper()
	v, ok := persist.Resource[T](app)
	if !ok {
		var zero T
		t.Fatalf("expected resource %T to be present, got none", zero)
	}
	if !check(*v) {
		t.Fatalf("resource check failed: %+v", *v)
	}
}

// NewTestHarness creates a harness around an in-process entry point with a
// sync channel watcher. Returns the harness and a channel for sending changes.
func NewTestHarness(t *testing.T, entry persist.EntryFunc, opts ...persist.Option) (*persist.Harness, chan<- persist.Change) {
	t.Helper()
	const path = "module"
	ch := make(chan persist.Change, 10)
	opts = append([]persist.Option{
		persist.WithLoader(persist.NewStaticLoader(entry)),
		persist.WithWatcher(persist.NewSyncChannelWatcher(ch).ForPath(path)),
	}, opts...)
	return persist.New(path, opts...), ch
}
