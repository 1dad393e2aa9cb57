/*
Package persist reloads a dynamically loaded module inside a running process
while carrying selected application state across each reload.

A host process runs a Harness. The Harness loads the module artifact,
resolves its entry point, and calls it with a fresh AppContext. The module
registers resources and systems, picks a Runner, and calls Run. When the
artifact is rebuilt, a watcher raises the reload Signal; on the next tick the
reload probe captures every preserved resource into the Store and asks the
app to exit. The Harness then unloads the module and loads it again, and the
new generation starts from the captured state.

# Host

	func main() {
	    persist.LoadModule("game") // loads libgame.so next to the executable
	}

# Module

A module is a plugin (go build -buildmode=plugin) exporting PersistMain:

	type Score struct {
	    Count int `msgpack:"count"`
	}

	func PersistMain(ac *persist.AppContext) {
	    persist.Preserve(ac, Score{})
	    ac.AddSystem("score", func(_ context.Context, app *persist.App) error {
	        persist.MustResource[Score](app).Count++
	        return nil
	    })
	    ac.SetRunner(persist.LoopRunner(300*time.Millisecond, nil))
	    ac.Run()
	}

# Preserving state

Preserve serializes a resource through the configured Codec (MessagePack by
default) and restores it on the next load. Transfer hands the in-memory
value over as is, which only works while the type's identity is unchanged.
Resources added with AddResource are dropped on every reload.

Store identifiers default to the resource type's fully-qualified name.
Implement Keyed to pin or version an identifier explicitly.

# Failure

Nothing is retried. A load failure, a missing or mistyped entry point, a blob
that no longer decodes, or a capture that fails all end Harness.Run with an
error. Losing preserved state silently is worse than stopping.

# Signals

The package emits capitan signals for harness, module and reload lifecycle
events; see signals.go and fields.go. Hook them to route events into a logger
or metrics system:

	capitan.Hook(persist.ModuleLoaded, func(_ context.Context, e *capitan.Event) {
	    gen, _ := persist.KeyGeneration.From(e)
	    log.Printf("loaded generation %d", gen)
	})
*/
package persist
