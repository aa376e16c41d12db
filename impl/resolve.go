package impl

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Resolve finds the build-script-impl executable for name. A name containing
// a path separator is used as-is. Otherwise PATH is tried first, then the
// working directory, then the directory of the running executable, so a
// checkout's utils/ directory works without PATH changes.
func Resolve(name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsRune(name, filepath.Separator) {
		if _, err := os.Stat(name); err != nil {
			return name, fmt.Errorf("build-script-impl at %q: %w", name, err)
		}
		return name, nil
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return name, fmt.Errorf("command %q not found in PATH or current directory", name)
}

// Fingerprint identifies a particular build of the executable at path, so
// cached verdicts are dropped when the script changes.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano()), nil
}
