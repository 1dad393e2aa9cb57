package persist

import "github.com/zoobzio/capitan"

// Field keys for harness and reload events.
var (
	// KeyPath is the module artifact path being watched or loaded.
	KeyPath = capitan.NewStringKey("path")

	// KeyGeneration is the load counter, starting at 1 for the first load.
	KeyGeneration = capitan.NewIntKey("generation")

	// KeyResource is the Store identifier of a preserved resource.
	KeyResource = capitan.NewStringKey("resource")

	// KeyCodec is the content type of the codec used for a resource.
	KeyCodec = capitan.NewStringKey("codec")

	// KeyCaptures is the number of capture actions run in a reload.
	KeyCaptures = capitan.NewIntKey("captures")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDuration is the elapsed time of a load, run or capture pass.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyState is the probe state.
	KeyState = capitan.NewStringKey("state")
)
