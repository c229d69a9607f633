// Package opener shows a directory in the platform file browser.
package opener

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/maauso/audiosplit/internal/media"
)

// Command returns the program and arguments that open dir on goos.
func Command(goos, dir string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{dir}
	case "darwin":
		return "open", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

// Open opens dir in the file browser of the running platform.
func Open(ctx context.Context, dir string) error {
	name, args := Command(runtime.GOOS, dir)
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", media.ErrToolNotFound, name, err)
	}
	if _, err := media.Run(ctx, path, args); err != nil && !benignExit(name, err) {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	return nil
}

// benignExit reports whether err is explorer's exit status 1, which it
// returns even after opening the folder.
func benignExit(name string, err error) bool {
	var toolErr *media.ToolError
	return name == "explorer" && errors.As(err, &toolErr) && toolErr.ExitCode == 1
}
