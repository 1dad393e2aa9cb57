package persist

import "github.com/zoobzio/capitan"

// Harness lifecycle signals.
var (
	// HarnessStarted is emitted when a Harness begins its load loop.
	HarnessStarted = capitan.NewSignal(
		"persist.harness.started",
		"Harness load loop started",
	)

	// HarnessStopped is emitted when a Harness leaves its load loop cleanly.
	HarnessStopped = capitan.NewSignal(
		"persist.harness.stopped",
		"Harness load loop stopped",
	)

	// HarnessFailed is emitted when a fatal error ends the load loop.
	HarnessFailed = capitan.NewSignal(
		"persist.harness.failed",
		"Harness stopped on fatal error",
	)
)

// Module signals.
var (
	// ModuleLoaded is emitted after the artifact is opened and its entry resolved.
	ModuleLoaded = capitan.NewSignal(
		"persist.module.loaded",
		"Module artifact loaded",
	)

	// ModuleUnloaded is emitted after the entry point returns and the module is closed.
	ModuleUnloaded = capitan.NewSignal(
		"persist.module.unloaded",
		"Module artifact unloaded",
	)
)

// Reload signals.
var (
	// ReloadRequested is emitted by the watcher when the artifact changes.
	ReloadRequested = capitan.NewSignal(
		"persist.reload.requested",
		"Module artifact changed",
	)

	// ReloadCaptured is emitted by the probe after every capture action ran.
	ReloadCaptured = capitan.NewSignal(
		"persist.reload.captured",
		"Preserved resources captured",
	)

	// ResourceRestored is emitted when a preserved resource is seeded from the Store.
	ResourceRestored = capitan.NewSignal(
		"persist.resource.restored",
		"Preserved resource restored",
	)

	// ResourceCaptured is emitted when a preserved resource is written to the Store.
	ResourceCaptured = capitan.NewSignal(
		"persist.resource.captured",
		"Preserved resource captured",
	)

	// WatcherFailed is emitted when the artifact watcher reports an error.
	WatcherFailed = capitan.NewSignal(
		"persist.watcher.failed",
		"Artifact watcher error",
	)
)
