package persist

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// Runner drives an App until it asks to exit. The module picks the runner;
// the harness only requires that it ticks and honors ShouldExit.
type Runner func(ctx context.Context, app *App) error

// RunOnce ticks the app a single time.
func RunOnce(ctx context.Context, app *App) error {
	return app.Tick(ctx)
}

// LoopRunner returns a Runner that ticks until exit is requested or ctx is
// canceled, waiting interval between ticks. An interval of zero ticks back to
// back. A nil clock uses the real clock.
func LoopRunner(interval time.Duration, clock clockz.Clock) Runner {
	if clock == nil {
		clock = clockz.RealClock
	}
	return func(ctx context.Context, app *App) error {
		for {
			if err := app.Tick(ctx); err != nil {
				return err
			}
			if app.ShouldExit() {
				return nil
			}

			if interval <= 0 {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				continue
			}

			timer := clock.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C():
			}
		}
	}
}
