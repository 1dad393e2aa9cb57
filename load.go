package persist

import (
	"context"
	"fmt"
	"os"
)

// LoadModule runs a default Harness for module name until the process is
// killed. The artifact is expected next to the executable (see ArtifactPath).
// Fatal errors are printed to stderr and exit the process with status 1.
//
// A host binary typically consists of nothing else:
//
//	func main() {
//	    persist.LoadModule("game")
//	}
func LoadModule(name string, opts ...Option) {
	path, err := ArtifactPath(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := New(path, opts...).Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
