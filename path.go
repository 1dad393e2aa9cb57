package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// LibraryAffixes returns the shared-library file name prefix and suffix for goos.
func LibraryAffixes(goos string) (prefix, suffix string) {
	switch goos {
	case "windows":
		return "", ".dll"
	case "darwin", "ios":
		return "lib", ".dylib"
	default:
		return "lib", ".so"
	}
}

// LibraryName returns the platform file name of module name.
func LibraryName(name string) string {
	prefix, suffix := LibraryAffixes(runtime.GOOS)
	return prefix + name + suffix
}

// ArtifactPath returns where module name is expected: next to the running
// executable, named by the platform's shared-library convention.
func ArtifactPath(name string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), LibraryName(name)), nil
}
