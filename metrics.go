package persist

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key harness events.
type MetricsProvider interface {
	// OnLoad is called after a module generation is opened and its entry resolved.
	OnLoad(generation int, duration time.Duration)

	// OnUnload is called after a generation's entry point returned and the
	// module was closed. Duration covers the whole run.
	OnUnload(generation int, duration time.Duration)

	// OnReloadDetected is called when the probe observes a pending reload.
	OnReloadDetected(generation int)

	// OnCapture is called after a capture pass. Captures is the number of
	// actions that completed successfully.
	OnCapture(captures int, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnLoad(_ int, _ time.Duration)    {}
func (NoOpMetricsProvider) OnUnload(_ int, _ time.Duration)  {}
func (NoOpMetricsProvider) OnReloadDetected(_ int)           {}
func (NoOpMetricsProvider) OnCapture(_ int, _ time.Duration) {}
