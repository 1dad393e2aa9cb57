package persist

import (
	"reflect"
	"strings"
	"sync"
)

// unnamedPluginPrefix starts the package path the go tool assigns to a
// plugin built from files rather than a package. The suffix is a hash of
// the sources and changes with every edit.
const unnamedPluginPrefix = "plugin/unnamed-"

// Keyed lets a resource type choose its own Store identifier.
// Implement it to keep preserved state across renames or to version the
// stored format deliberately:
//
//	func (Score) PersistKey() string { return "game.score/v2" }
type Keyed interface {
	PersistKey() string
}

// typeIDCache memoizes derived identifiers by type.
var typeIDCache sync.Map // key: reflect.Type, val: string

// TypeID returns the Store identifier for T.
//
// If T (or *T) implements Keyed, its PersistKey is used. Otherwise the
// identifier is the fully-qualified "import/path.Name" of T with pointers
// dereferenced. Unnamed types fall back to their reflect string form.
//
// Types declared in a plugin built from files (go build -buildmode=plugin
// main.go) report a package path that changes on every edit; it is
// replaced by "main" so the identifier survives a rebuild. Keyed covers
// everything else that moves, such as a renamed package.
func TypeID[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	var zero T
	if t.Kind() != reflect.Pointer {
		if k, ok := any(zero).(Keyed); ok {
			return k.PersistKey()
		}
	}
	if k, ok := any(&zero).(Keyed); ok {
		return k.PersistKey()
	}
	return typeName(t)
}

// typeName resolves the fully-qualified name of t with memoization.
func typeName(t reflect.Type) string {
	if v, ok := typeIDCache.Load(t); ok {
		return v.(string)
	}

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	name := base.String()
	if base.Name() != "" && base.PkgPath() != "" {
		name = stablePkgPath(base.PkgPath()) + "." + base.Name()
	}

	typeIDCache.Store(t, name)
	return name
}

// stablePkgPath maps the per-build path of an unnamed plugin to "main".
func stablePkgPath(path string) string {
	if strings.HasPrefix(path, unnamedPluginPrefix) {
		return "main"
	}
	return path
}
