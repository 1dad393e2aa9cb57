package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// AppContext is what a module's entry point receives on every load.
//
// It owns a fresh App with the reload probe already installed, an empty
// Registry, and shared references to the harness Store and Signal. The module
// registers resources and systems, picks a Runner and calls Run.
//
// Registration methods chain. The first failure is kept as a sticky error:
// later registrations become no-ops, Run refuses to start, and the harness
// treats the error as fatal once the entry point returns.
type AppContext struct {
	ctx      context.Context
	app      *App
	store    *Store
	signal   *Signal
	registry *Registry
	codec    Codec
	clock    clockz.Clock
	metrics  MetricsProvider
	probe    *probe
	runner   Runner

	generation int
	ran        bool
	err        error
}

// ContextOption configures an AppContext.
type ContextOption func(*AppContext)

// WithGeneration sets the load counter reported by Generation. Default: 1.
func WithGeneration(gen int) ContextOption {
	return func(ac *AppContext) {
		ac.generation = gen
	}
}

// WithContextClock sets the clock used to time capture passes.
func WithContextClock(clock clockz.Clock) ContextOption {
	return func(ac *AppContext) {
		ac.clock = clock
	}
}

// WithContextMetrics sets the metrics provider notified by the probe.
func WithContextMetrics(m MetricsProvider) ContextOption {
	return func(ac *AppContext) {
		ac.metrics = m
	}
}

// NewAppContext builds a context around store and signal. The harness calls
// this once per load; module tests may call it directly. A nil codec uses
// MsgpackCodec.
func NewAppContext(ctx context.Context, store *Store, signal *Signal, codec Codec, opts ...ContextOption) *AppContext {
	if codec == nil {
		codec = MsgpackCodec{}
	}
	ac := &AppContext{
		ctx:        ctx,
		app:        NewApp(),
		store:      store,
		signal:     signal,
		registry:   newRegistry(),
		codec:      codec,
		clock:      clockz.RealClock,
		metrics:    NoOpMetricsProvider{},
		runner:     RunOnce,
		generation: 1,
	}
	for _, opt := range opts {
		opt(ac)
	}
	ac.probe = newProbe(ac)
	ac.app.pin(probeSystemName, ac.probe.run)
	return ac
}

// App returns the application being configured.
func (ac *AppContext) App() *App {
	return ac.app
}

// Store returns the shared Store.
func (ac *AppContext) Store() *Store {
	return ac.store
}

// Signal returns the shared Signal.
func (ac *AppContext) Signal() *Signal {
	return ac.signal
}

// Registry returns this run's capture registry.
func (ac *AppContext) Registry() *Registry {
	return ac.registry
}

// Generation returns the load counter for this run, starting at 1.
func (ac *AppContext) Generation() int {
	return ac.generation
}

// ProbeState returns the reload probe's state for this run.
func (ac *AppContext) ProbeState() ProbeState {
	return ac.probe.State()
}

// Err returns the first fatal error recorded in this run.
func (ac *AppContext) Err() error {
	return ac.err
}

func (ac *AppContext) fail(err error) {
	if ac.err == nil {
		ac.err = err
	}
}

// AddResource inserts v for this run only. Nothing is preserved.
func (ac *AppContext) AddResource(v any) *AppContext {
	if ac.err != nil {
		return ac
	}
	if v == nil {
		ac.fail(errors.New("persist: add resource: nil value"))
		return ac
	}
	ac.app.insertValue(v)
	return ac
}

// AddSystem appends fn to StageUpdate.
func (ac *AppContext) AddSystem(name string, fn System) *AppContext {
	ac.app.AddSystem(name, fn)
	return ac
}

// AddSystemToStage appends fn to stage.
func (ac *AppContext) AddSystemToStage(stage Stage, name string, fn System) *AppContext {
	ac.app.AddSystemToStage(stage, name, fn)
	return ac
}

// SetRunner replaces the default RunOnce runner.
func (ac *AppContext) SetRunner(r Runner) *AppContext {
	ac.runner = r
	return ac
}

// Run hands control to the runner and blocks until it returns.
// It returns the sticky error, if any.
func (ac *AppContext) Run() error {
	if ac.err != nil {
		return ac.err
	}
	if ac.ran {
		ac.fail(ErrAlreadyRunning)
		return ac.err
	}
	ac.ran = true

	if err := ac.runner(ac.ctx, ac.app); err != nil && ac.ctx.Err() == nil {
		ac.fail(fmt.Errorf("run: %w", err))
	}
	return ac.err
}

// Preserve registers def as the resource of type T and keeps its value
// across reloads by serializing it with the context's codec.
//
// If the Store already holds a blob for T, it is decoded and used instead
// of def. A blob that fails to decode is fatal; the default is never used
// as a silent fallback. When a reload is detected the live value is encoded
// and written back to the Store under TypeID[T]().
func Preserve[T any](ac *AppContext, def T) *AppContext {
	if ac.err != nil {
		return ac
	}
	id := TypeID[T]()

	err := ac.registry.add(id, func(ctx context.Context, app *App) error {
		live, ok := Resource[T](app)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingResource, id)
		}
		data, err := ac.codec.Marshal(live)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		ac.store.Put(id, data)
		capitan.Emit(ctx, ResourceCaptured,
			KeyResource.Field(id),
			KeyCodec.Field(ac.codec.ContentType()),
		)
		return nil
	})
	if err != nil {
		ac.fail(err)
		return ac
	}

	value := def
	if data, ok := ac.store.Get(id); ok {
		var restored T
		if err := ac.codec.Unmarshal(data, &restored); err != nil {
			ac.fail(fmt.Errorf("%w: %s: %w", ErrDecode, id, err))
			return ac
		}
		value = restored
		capitan.Emit(ac.ctx, ResourceRestored,
			KeyResource.Field(id),
			KeyCodec.Field(ac.codec.ContentType()),
			KeyGeneration.Field(ac.generation),
		)
	}

	Insert(ac.app, value)
	return ac
}

// Transfer registers def as the resource of type T and hands its in-memory
// value to the next run without serialization.
//
// This only works while the type's identity is unchanged across the reload.
// A Go type redefined by a rebuilt module is a different type, and the
// handover then fails with ErrTypeMismatch rather than guessing.
func Transfer[T any](ac *AppContext, def T) *AppContext {
	if ac.err != nil {
		return ac
	}
	id := TypeID[T]()

	err := ac.registry.add(id, func(ctx context.Context, app *App) error {
		live, ok := Resource[T](app)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingResource, id)
		}
		ac.store.PutValue(id, *live)
		capitan.Emit(ctx, ResourceCaptured,
			KeyResource.Field(id),
		)
		return nil
	})
	if err != nil {
		ac.fail(err)
		return ac
	}

	value := def
	if stored, ok := ac.store.Value(id); ok {
		v, ok := stored.(T)
		if !ok {
			ac.fail(fmt.Errorf("%w: %s: stored %T, want %T", ErrTypeMismatch, id, stored, def))
			return ac
		}
		value = v
		capitan.Emit(ac.ctx, ResourceRestored,
			KeyResource.Field(id),
			KeyGeneration.Field(ac.generation),
		)
	}

	Insert(ac.app, value)
	return ac
}
