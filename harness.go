package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Harness drives the outer reload loop: clear the signal, load the module,
// run its entry point against a fresh AppContext, unload it, repeat.
//
// The Store and Signal live as long as the Harness; everything else is
// rebuilt per load. Every failure is fatal and ends Run with an error.
type Harness struct {
	path    string
	loader  Loader
	watcher Watcher
	store   *Store
	signal  *Signal
	codec   Codec
	clock   clockz.Clock
	metrics MetricsProvider

	haltOnExit bool

	loads atomic.Int64

	mu      sync.Mutex
	started bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithLoader replaces the default PluginLoader.
func WithLoader(l Loader) Option {
	return func(h *Harness) {
		h.loader = l
	}
}

// WithWatcher replaces the default FileWatcher on the artifact path.
func WithWatcher(w Watcher) Option {
	return func(h *Harness) {
		h.watcher = w
	}
}

// WithStore seeds the harness with an existing Store.
func WithStore(s *Store) Option {
	return func(h *Harness) {
		h.store = s
	}
}

// WithCodec sets the codec used by Preserve. Default: MsgpackCodec.
func WithCodec(c Codec) Option {
	return func(h *Harness) {
		h.codec = c
	}
}

// WithClock sets the clock used for timings.
// Use this with clockz.FakeClock for deterministic tests.
func WithClock(clock clockz.Clock) Option {
	return func(h *Harness) {
		h.clock = clock
	}
}

// WithMetrics sets a metrics provider for observability integration.
func WithMetrics(m MetricsProvider) Option {
	return func(h *Harness) {
		h.metrics = m
	}
}

// WithHaltOnExit stops the loop when a run ends without a pending reload,
// for example when the application's window was closed. By default the
// harness reloads unconditionally.
func WithHaltOnExit() Option {
	return func(h *Harness) {
		h.haltOnExit = true
	}
}

// New creates a Harness for the module artifact at path.
func New(path string, opts ...Option) *Harness {
	h := &Harness{
		path:    path,
		store:   NewStore(),
		signal:  NewSignal(),
		codec:   MsgpackCodec{},
		clock:   clockz.RealClock,
		metrics: NoOpMetricsProvider{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.loader == nil {
		h.loader = NewPluginLoader("")
	}
	if h.watcher == nil {
		h.watcher = NewFileWatcher(path)
	}
	return h
}

// Path returns the module artifact path.
func (h *Harness) Path() string {
	return h.path
}

// Store returns the Store shared by every load.
func (h *Harness) Store() *Store {
	return h.store
}

// Signal returns the reload Signal.
func (h *Harness) Signal() *Signal {
	return h.signal
}

// Loads returns how many times the module has been loaded.
func (h *Harness) Loads() int {
	return int(h.loads.Load())
}

// Run starts the watcher and loops until ctx is canceled or a fatal error
// occurs. Cancellation is observed between loads; a running module ends
// only through its runner. Run can only be called once.
func (h *Harness) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.started = true
	h.mu.Unlock()

	capitan.Emit(ctx, HarnessStarted,
		KeyPath.Field(h.path),
		KeyCodec.Field(h.codec.ContentType()),
	)

	if err := h.signal.Watch(ctx, h.watcher); err != nil {
		return h.failed(ctx, err)
	}

	for {
		if ctx.Err() != nil {
			h.stopped(ctx)
			return nil
		}

		reloading, err := h.iterate(ctx)
		if err != nil {
			return h.failed(ctx, err)
		}
		if h.haltOnExit && !reloading {
			h.stopped(ctx)
			return nil
		}
	}
}

// iterate performs one load, run and unload. It reports whether the run
// ended with a reload pending.
func (h *Harness) iterate(ctx context.Context) (bool, error) {
	h.signal.Clear()
	gen := int(h.loads.Add(1))

	start := h.clock.Now()
	mod, err := h.loader.Open(h.path)
	if err != nil {
		if !errors.Is(err, ErrLoad) {
			err = fmt.Errorf("%w: %s: %w", ErrLoad, h.path, err)
		}
		return false, err
	}
	entry, err := mod.Entry()
	if err != nil {
		if closeErr := mod.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("unload %s: %w", h.path, closeErr))
		}
		return false, err
	}
	loadTime := h.clock.Now().Sub(start)
	h.metrics.OnLoad(gen, loadTime)
	capitan.Emit(ctx, ModuleLoaded,
		KeyPath.Field(h.path),
		KeyGeneration.Field(gen),
		KeyDuration.Field(loadTime),
	)

	ac := NewAppContext(ctx, h.store, h.signal, h.codec,
		WithGeneration(gen),
		WithContextClock(h.clock),
		WithContextMetrics(h.metrics),
	)

	runStart := h.clock.Now()
	callErr := call(entry, ac)
	reloading := h.signal.Pending()
	closeErr := mod.Close()
	runTime := h.clock.Now().Sub(runStart)

	h.metrics.OnUnload(gen, runTime)
	capitan.Emit(ctx, ModuleUnloaded,
		KeyPath.Field(h.path),
		KeyGeneration.Field(gen),
		KeyDuration.Field(runTime),
	)

	if callErr != nil {
		return reloading, callErr
	}
	if err := ac.Err(); err != nil {
		return reloading, err
	}
	if closeErr != nil {
		return reloading, fmt.Errorf("unload %s: %w", h.path, closeErr)
	}
	return reloading, nil
}

// call invokes entry, converting a panic into an error.
func call(entry EntryFunc, ac *AppContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("module panicked: %v", r)
		}
	}()
	entry(ac)
	return nil
}

func (h *Harness) stopped(ctx context.Context) {
	capitan.Emit(ctx, HarnessStopped,
		KeyPath.Field(h.path),
		KeyGeneration.Field(h.Loads()),
	)
}

func (h *Harness) failed(ctx context.Context, err error) error {
	capitan.Emit(ctx, HarnessFailed,
		KeyPath.Field(h.path),
		KeyGeneration.Field(h.Loads()),
		KeyError.Field(err.Error()),
	)
	return err
}
