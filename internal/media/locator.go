// Package media locates and runs the external media tools (ffmpeg, ffprobe)
// that do all of the actual audio work.
package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Tool names understood by the locators.
const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// ErrToolNotFound is returned when a required external binary cannot be found.
var ErrToolNotFound = errors.New("media tool not found")

// ToolLocator resolves the executable path of an external media tool.
// Implementations decide where binaries live: on the system PATH,
// alongside the application, or at explicitly configured paths.
type ToolLocator interface {
	// Locate returns the path to the named tool (e.g. "ffmpeg").
	// Returns an error wrapping ErrToolNotFound if the tool is absent.
	Locate(tool string) (string, error)
}

// SystemLocator finds tools on the system PATH.
type SystemLocator struct{}

// Locate implements ToolLocator using exec.LookPath.
func (SystemLocator) Locate(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, tool, err)
	}
	return path, nil
}

// BundledLocator finds tools shipped next to the application.
type BundledLocator struct {
	// Dir is the directory holding the bundled binaries.
	// If empty, the directory of the running executable is used.
	Dir string
}

// Locate implements ToolLocator by looking for the tool inside Dir.
func (l BundledLocator) Locate(tool string) (string, error) {
	dir := l.Dir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("%w: %s: resolve executable: %w", ErrToolNotFound, tool, err)
		}
		dir = filepath.Dir(exe)
	}

	name := tool
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrToolNotFound, path)
	}
	return path, nil
}

// StaticLocator returns explicitly configured tool paths and delegates
// anything it does not know about to Fallback.
type StaticLocator struct {
	Paths    map[string]string
	Fallback ToolLocator
}

// Locate implements ToolLocator.
func (l StaticLocator) Locate(tool string) (string, error) {
	if p, ok := l.Paths[tool]; ok && p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, p, err)
		}
		return p, nil
	}
	if l.Fallback == nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, tool)
	}
	return l.Fallback.Locate(tool)
}

// Verify interface implementations at compile time.
var (
	_ ToolLocator = SystemLocator{}
	_ ToolLocator = BundledLocator{}
	_ ToolLocator = StaticLocator{}
)
