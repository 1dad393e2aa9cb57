package persist

import (
	"fmt"
)

// Module entry contract.
const (
	// EntrySymbol is the exported name the harness resolves in every module.
	// Its value must be a func(*AppContext).
	EntrySymbol = "PersistMain"

	// ABISymbol optionally declares the contract version a module was built
	// against. When exported it must equal ABIVersion.
	ABISymbol = "PersistABI"

	// ABIVersion is the entry contract version this build of persist speaks.
	ABIVersion = 1
)

// EntryFunc is a module's entry point. It configures the AppContext and
// normally calls Run before returning.
type EntryFunc func(*AppContext)

// Module is one loaded generation of the module artifact.
type Module interface {
	// Entry resolves EntrySymbol.
	Entry() (EntryFunc, error)

	// Close unloads the module as far as the platform allows.
	Close() error
}

// Loader opens module artifacts.
type Loader interface {
	Open(path string) (Module, error)
}

// lookupFunc resolves an exported symbol by name.
type lookupFunc func(name string) (any, error)

// resolveEntry validates the module's ABI declaration and entry point.
func resolveEntry(lookup lookupFunc) (EntryFunc, error) {
	if abi, err := lookup(ABISymbol); err == nil {
		version, ok := abiVersion(abi)
		if !ok {
			return nil, fmt.Errorf("%w: %s has type %T", ErrABIMismatch, ABISymbol, abi)
		}
		if version != ABIVersion {
			return nil, fmt.Errorf("%w: module declares %d, host speaks %d", ErrABIMismatch, version, ABIVersion)
		}
	}

	sym, err := lookup(EntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingEntry, EntrySymbol, err)
	}

	switch fn := sym.(type) {
	case func(*AppContext):
		return fn, nil
	case EntryFunc:
		return fn, nil
	case *func(*AppContext):
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	case *EntryFunc:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has type %T, want func(*persist.AppContext)", ErrEntrySignature, EntrySymbol, sym)
}

func abiVersion(sym any) (int, bool) {
	switch v := sym.(type) {
	case int:
		return v, true
	case *int:
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// Symbols is a Module backed by an in-process symbol table. It lets a host
// link its module statically, for release builds or platforms without
// plugin support, and serves as a test double.
type Symbols map[string]any

// Entry resolves EntrySymbol from the table.
func (s Symbols) Entry() (EntryFunc, error) {
	return resolveEntry(func(name string) (any, error) {
		v, ok := s[name]
		if !ok {
			return nil, fmt.Errorf("symbol %s not found", name)
		}
		return v, nil
	})
}

// Close is a no-op.
func (Symbols) Close() error {
	return nil
}

// StaticLoader opens the same in-process module for every path.
type StaticLoader struct {
	Module Symbols
}

// NewStaticLoader creates a StaticLoader whose module exports entry.
func NewStaticLoader(entry EntryFunc) *StaticLoader {
	return &StaticLoader{Module: Symbols{
		EntrySymbol: entry,
		ABISymbol:   ABIVersion,
	}}
}

// Open returns the static module.
func (l *StaticLoader) Open(_ string) (Module, error) {
	return l.Module, nil
}

// Ensure loaders implement their interfaces.
var (
	_ Module = Symbols(nil)
	_ Loader = (*StaticLoader)(nil)
)
