package contract

import (
	"os"
	"path/filepath"
)

// ResolvePath locates the interface description file. Absolute paths are
// returned unchanged. Relative paths are tried against the working directory
// first and then against the directory holding the running executable.
func ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}
