package persist

import "errors"

// Fatal errors. Each one ends the harness loop; there is no partial reload.
var (
	// ErrLoad is returned when the module artifact cannot be opened.
	ErrLoad = errors.New("persist: module load failed")

	// ErrMissingEntry is returned when the artifact does not export EntrySymbol.
	ErrMissingEntry = errors.New("persist: module entry point not found")

	// ErrEntrySignature is returned when EntrySymbol has the wrong type.
	ErrEntrySignature = errors.New("persist: module entry point has wrong signature")

	// ErrABIMismatch is returned when the module declares a different ABIVersion.
	ErrABIMismatch = errors.New("persist: module ABI version mismatch")

	// ErrDecode is returned when a stored blob cannot be decoded into its resource.
	ErrDecode = errors.New("persist: preserved resource decode failed")

	// ErrEncode is returned when a live resource cannot be encoded.
	ErrEncode = errors.New("persist: preserved resource encode failed")

	// ErrCapture is returned when a capture action fails during reload.
	ErrCapture = errors.New("persist: capture failed")

	// ErrTypeMismatch is returned when a transferred value has a different
	// dynamic type than the one registering it, typically because the type
	// was redefined by a new build.
	ErrTypeMismatch = errors.New("persist: transferred resource type mismatch")

	// ErrDuplicateResource is returned when one resource type is preserved
	// twice in a single run.
	ErrDuplicateResource = errors.New("persist: resource preserved twice")

	// ErrMissingResource is returned when a capture finds its resource gone.
	ErrMissingResource = errors.New("persist: resource missing from app")

	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("persist: already running")
)
