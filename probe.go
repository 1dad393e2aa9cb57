package persist

import (
	"context"
	"sync/atomic"

	"github.com/zoobzio/capitan"
)

// probeSystemName is the name the probe is registered under.
const probeSystemName = "persist.probe"

// probe checks the Signal once per tick. On the first tick that finds a
// reload pending it captures every preserved resource, then requests exit.
type probe struct {
	ac    *AppContext
	state atomic.Int32
}

func newProbe(ac *AppContext) *probe {
	p := &probe{ac: ac}
	p.state.Store(int32(ProbeIdle))
	return p
}

// State returns the current probe state.
func (p *probe) State() ProbeState {
	return ProbeState(p.state.Load())
}

// run is pinned ahead of every stage.
func (p *probe) run(ctx context.Context, app *App) error {
	if p.State() == ProbeReloading {
		return nil
	}
	if !p.ac.signal.Pending() {
		return nil
	}
	p.state.Store(int32(ProbeReloading))
	p.ac.metrics.OnReloadDetected(p.ac.generation)

	start := p.ac.clock.Now()
	n, err := p.ac.registry.captureAll(ctx, app)
	elapsed := p.ac.clock.Now().Sub(start)
	p.ac.metrics.OnCapture(n, elapsed)

	if err != nil {
		p.ac.fail(err)
	} else {
		capitan.Emit(ctx, ReloadCaptured,
			KeyGeneration.Field(p.ac.generation),
			KeyCaptures.Field(n),
			KeyDuration.Field(elapsed),
			KeyState.Field(p.State().String()),
		)
	}

	app.RequestExit()
	return nil
}
