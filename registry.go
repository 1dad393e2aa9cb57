package persist

import (
	"context"
	"fmt"
)

// capture writes one preserved resource from the live app into the Store.
type capture struct {
	id   string
	save func(ctx context.Context, app *App) error
}

// Registry is the ordered set of capture actions for one module run.
// A fresh Registry is built for every load.
type Registry struct {
	captures []capture
	ids      map[string]struct{}
}

func newRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// add appends a capture for id. Registering one id twice in a run is an error.
func (r *Registry) add(id string, save func(ctx context.Context, app *App) error) error {
	if _, ok := r.ids[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, id)
	}
	r.ids[id] = struct{}{}
	r.captures = append(r.captures, capture{id: id, save: save})
	return nil
}

// Len returns the number of registered captures.
func (r *Registry) Len() int {
	return len(r.captures)
}

// IDs returns the registered identifiers in capture order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.captures))
	for i, c := range r.captures {
		ids[i] = c.id
	}
	return ids
}

// captureAll runs every capture in registration order and stops at the first
// failure. It returns how many captures completed.
func (r *Registry) captureAll(ctx context.Context, app *App) (int, error) {
	for i, c := range r.captures {
		if err := c.save(ctx, app); err != nil {
			return i, fmt.Errorf("%w: %s: %w", ErrCapture, c.id, err)
		}
	}
	return len(r.captures), nil
}
