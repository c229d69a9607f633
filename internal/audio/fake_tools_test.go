package audio

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/maauso/audiosplit/internal/media"
)

// fakeToolDir writes an executable shell script named tool into a fresh
// directory and returns a locator that resolves tools from it.
func fakeToolDir(t *testing.T, tool, script string) media.BundledLocator {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, tool), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake %s: %v", tool, err)
	}
	return media.BundledLocator{Dir: dir}
}

// fakeFFmpegScript records its arguments to logPath, one invocation per line,
// touches its last argument and exits 1 when that argument contains failOn.
func fakeFFmpegScript(logPath, failOn string) string {
	script := "#!/bin/sh\n" +
		"for last; do :; done\n" +
		"echo \"$@\" >> '" + logPath + "'\n"
	if failOn != "" {
		script += "case \"$last\" in *" + failOn + "*) echo 'Conversion failed!' >&2; exit 1;; esac\n"
	}
	script += "printf 'segment' > \"$last\"\n"
	return script
}
