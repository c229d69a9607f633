package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Run executes an external tool and returns its stdout.
// On a non-zero exit the returned error is a *ToolError carrying the
// exit code and the captured stderr.
func Run(ctx context.Context, path string, args []string) ([]byte, error) {
	// #nosec G204 - path comes from a ToolLocator, not user input
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", filepath.Base(path), ctx.Err())
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ToolError{
			Tool:     filepath.Base(path),
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

// ToolError represents a failed external tool invocation.
type ToolError struct {
	Tool string
	Args []string
	// ExitCode is the process exit status, or -1 if the process did not
	// start or was terminated by a signal.
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %v\nargs: %v\nstderr: %s", e.Tool, e.ExitCode, e.Err, e.Args, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
