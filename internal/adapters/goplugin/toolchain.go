package goplugin

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// allowListedEnvVars are the variables the go command inherits. Everything
// else is dropped so plugin builds do not depend on the caller's shell.
var allowListedEnvVars = map[string]struct{}{
	"HOME":       {},
	"USER":       {},
	"PATH":       {},
	"TMPDIR":     {},
	"GOROOT":     {},
	"GOPATH":     {},
	"GOCACHE":    {},
	"GOMODCACHE": {},
	"GOPROXY":    {},
	"CC":         {},
	"CXX":        {},
}

// buildEnv pins the settings a plugin build must not inherit.
var buildEnv = map[string]string{
	"GOFLAGS":     "",
	"GOENV":       "off",
	"GOWORK":      "off",
	"CGO_ENABLED": "1",
	"GOTOOLCHAIN": "local",
}

// toolchain runs the go command.
type toolchain struct {
	binary string
	logger ports.Logger

	mu      sync.Mutex
	version string
}

// hostVersion is the toolchain the running binary was built with. Plugins
// built by any other toolchain fail to load.
var hostVersion = runtime.Version()

// goVersion reports GOVERSION of the go command. The first successful answer
// is kept for the lifetime of the toolchain.
func (tc *toolchain) goVersion(ctx context.Context, dir string) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.version != "" {
		return tc.version, nil
	}

	var out bytes.Buffer
	if err := tc.run(ctx, dir, []string{"env", "GOVERSION"}, &out); err != nil {
		return "", err
	}
	tc.version = strings.TrimSpace(out.String())
	return tc.version, nil
}

// run executes the go command in dir. Standard output is handed to stdout;
// standard error is logged line by line.
func (tc *toolchain) run(ctx context.Context, dir string, args []string, stdout io.Writer) error {
	env := resolveEnvironment(os.Environ(), buildEnv)

	executable := tc.binary
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	stderrLog := newLogWriter(tc.logger)
	defer func() { _ = stderrLog.Close() }()

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // go binary comes from settings
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderrLog

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "go command failed"), "exit_code", exitCode)
	}
	return nil
}

// lineWriter hands every complete line to emit. Close flushes a trailing
// partial line.
type lineWriter struct {
	emit func(line []byte)
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(bytes.TrimSuffix(w.buf[:i], []byte("\r")))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
	return nil
}

// newLogWriter logs every non-empty line at debug level.
func newLogWriter(logger ports.Logger) *lineWriter {
	return &lineWriter{emit: func(line []byte) {
		if msg := strings.TrimSpace(string(line)); msg != "" {
			logger.Debug(msg)
		}
	}}
}

// resolveEnvironment keeps the allow-listed system variables and applies overrides.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() && fi.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}
