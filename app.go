package persist

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
)

// Stage groups systems within a tick. Stages run in declaration order.
type Stage int

const (
	// StageFirst runs before every other stage, after the pinned systems.
	StageFirst Stage = iota
	// StageUpdate is where AddSystem places systems.
	StageUpdate
	// StageLast runs after every update system.
	StageLast

	stageCount
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageFirst:
		return "first"
	case StageUpdate:
		return "update"
	case StageLast:
		return "last"
	default:
		return "unknown"
	}
}

// System runs once per tick. Returning an error aborts the tick.
type System func(ctx context.Context, app *App) error

type namedSystem struct {
	name string
	fn   System
}

// App is the minimal host application a module configures: typed resources,
// systems ordered by stage, and an exit request observed by the runner.
//
// An App is driven from a single goroutine. Only RequestExit and ShouldExit
// are safe to call concurrently.
type App struct {
	resources map[reflect.Type]any
	pinned    []namedSystem
	stages    [stageCount][]namedSystem

	exit  atomic.Bool
	ticks atomic.Uint64
}

// NewApp creates an empty App.
func NewApp() *App {
	return &App{resources: make(map[reflect.Type]any)}
}

// AddSystem appends fn to StageUpdate.
func (a *App) AddSystem(name string, fn System) *App {
	return a.AddSystemToStage(StageUpdate, name, fn)
}

// AddSystemToStage appends fn to the given stage.
func (a *App) AddSystemToStage(stage Stage, name string, fn System) *App {
	a.checkStage(stage)
	a.stages[stage] = append(a.stages[stage], namedSystem{name: name, fn: fn})
	return a
}

// AddSystemToStageFront inserts fn ahead of every system already in stage.
// Pinned systems, such as the reload probe, still run before it.
func (a *App) AddSystemToStageFront(stage Stage, name string, fn System) *App {
	a.checkStage(stage)
	a.stages[stage] = append([]namedSystem{{name: name, fn: fn}}, a.stages[stage]...)
	return a
}

// pin adds fn to the slot that runs before every stage. Nothing a module
// registers can be ordered ahead of a pinned system.
func (a *App) pin(name string, fn System) {
	a.pinned = append(a.pinned, namedSystem{name: name, fn: fn})
}

func (a *App) checkStage(stage Stage) {
	if stage < 0 || stage >= stageCount {
		panic(fmt.Sprintf("persist: invalid stage %d", stage))
	}
}

// Systems returns system names in execution order.
func (a *App) Systems() []string {
	var names []string
	for _, s := range a.pinned {
		names = append(names, s.name)
	}
	for _, stage := range a.stages {
		for _, s := range stage {
			names = append(names, s.name)
		}
	}
	return names
}

// Tick runs the pinned systems and then every stage once, in order. Once
// exit has been requested no further system runs in this tick.
func (a *App) Tick(ctx context.Context) error {
	a.ticks.Add(1)
	if err := a.runSystems(ctx, a.pinned); err != nil {
		return err
	}
	for _, stage := range a.stages {
		if err := a.runSystems(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runSystems(ctx context.Context, systems []namedSystem) error {
	for _, s := range systems {
		if a.ShouldExit() {
			return nil
		}
		if err := s.fn(ctx, a); err != nil {
			return fmt.Errorf("system %s: %w", s.name, err)
		}
	}
	return nil
}

// Ticks returns how many times Tick has been called.
func (a *App) Ticks() uint64 {
	return a.ticks.Load()
}

// RequestExit asks the runner to stop after the current system.
func (a *App) RequestExit() {
	a.exit.Store(true)
}

// ShouldExit reports whether exit has been requested.
func (a *App) ShouldExit() bool {
	return a.exit.Load()
}

// Insert stores v as the app's resource of type T, replacing any previous one.
func Insert[T any](a *App, v T) {
	a.resources[reflect.TypeOf((*T)(nil)).Elem()] = &v
}

// insertValue stores v under its dynamic type.
func (a *App) insertValue(v any) {
	t := reflect.TypeOf(v)
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(v))
	a.resources[t] = ptr.Interface()
}

// Resource returns a pointer to the app's resource of type T.
// Mutations through the pointer are visible to every later system.
func Resource[T any](a *App) (*T, bool) {
	v, ok := a.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// MustResource is like Resource but panics when the resource is absent.
func MustResource[T any](a *App) *T {
	v, ok := Resource[T](a)
	if !ok {
		var zero T
		panic(fmt.Sprintf("persist: resource %T not found", zero))
	}
	return v
}
