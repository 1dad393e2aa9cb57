package main

import (
	"context"
	"log/slog"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/persist"
)

// hookSignals routes persist lifecycle signals into logger.
func hookSignals(logger *slog.Logger) {
	capitan.Hook(persist.HarnessStarted, func(_ context.Context, e *capitan.Event) {
		path, _ := persist.KeyPath.From(e)
		codec, _ := persist.KeyCodec.From(e)
		logger.Info("harness started", "path", path, "codec", codec)
	})

	capitan.Hook(persist.HarnessStopped, func(_ context.Context, e *capitan.Event) {
		gen, _ := persist.KeyGeneration.From(e)
		logger.Info("harness stopped", "loads", gen)
	})

	capitan.Hook(persist.HarnessFailed, func(_ context.Context, e *capitan.Event) {
		gen, _ := persist.KeyGeneration.From(e)
		msg, _ := persist.KeyError.From(e)
		logger.Error("harness failed", "generation", gen, "error", msg)
	})

	capitan.Hook(persist.ModuleLoaded, func(_ context.Context, e *capitan.Event) {
		gen, _ := persist.KeyGeneration.From(e)
		d, _ := persist.KeyDuration.From(e)
		logger.Info("module loaded", "generation", gen, "duration", d)
	})

	capitan.Hook(persist.ModuleUnloaded, func(_ context.Context, e *capitan.Event) {
		gen, _ := persist.KeyGeneration.From(e)
		d, _ := persist.KeyDuration.From(e)
		logger.Info("module unloaded", "generation", gen, "ran", d)
	})

	capitan.Hook(persist.ReloadRequested, func(_ context.Context, e *capitan.Event) {
		path, _ := persist.KeyPath.From(e)
		logger.Debug("artifact changed", "path", path)
	})

	capitan.Hook(persist.ReloadCaptured, func(_ context.Context, e *capitan.Event) {
		n, _ := persist.KeyCaptures.From(e)
		d, _ := persist.KeyDuration.From(e)
		logger.Info("reload captured", "captures", n, "duration", d)
	})

	capitan.Hook(persist.ResourceRestored, func(_ context.Context, e *capitan.Event) {
		id, _ := persist.KeyResource.From(e)
		logger.Debug("resource restored", "resource", id)
	})

	capitan.Hook(persist.ResourceCaptured, func(_ context.Context, e *capitan.Event) {
		id, _ := persist.KeyResource.From(e)
		logger.Debug("resource captured", "resource", id)
	})

	capitan.Hook(persist.WatcherFailed, func(_ context.Context, e *capitan.Event) {
		msg, _ := persist.KeyError.From(e)
		logger.Warn("artifact watcher error", "error", msg)
	})
}
