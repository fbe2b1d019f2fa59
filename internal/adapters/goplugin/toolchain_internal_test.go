package goplugin

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestResolveEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sysEnv    []string
		overrides map[string]string
		expected  []string
	}{
		{
			name:     "allowed variables pass",
			sysEnv:   []string{"HOME=/home/test", "PATH=/bin", "GOCACHE=/cache"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "GOCACHE=/cache"},
		},
		{
			name:     "other variables are dropped",
			sysEnv:   []string{"PATH=/bin", "GOFLAGS=-mod=vendor", "SECRET=key", "malformed"},
			expected: []string{"PATH=/bin"},
		},
		{
			name:      "overrides win",
			sysEnv:    []string{"PATH=/bin"},
			overrides: buildEnv,
			expected:  []string{"PATH=/bin", "GOFLAGS=", "GOENV=off", "GOWORK=off", "CGO_ENABLED=1", "GOTOOLCHAIN=local"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := resolveEnvironment(tt.sysEnv, tt.overrides)
			sort.Strings(got)
			want := append([]string(nil), tt.expected...)
			sort.Strings(want)
			assert.Equal(t, want, got)
		})
	}
}

func TestLookPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bin := filepath.Join(dir, "go")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o700))

	got, err := lookPath("go", []string{"PATH=" + dir})
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	_, err = lookPath("go", []string{"HOME=/"})
	require.Error(t, err)
	_, err = lookPath("missing", []string{"PATH=" + dir})
	require.Error(t, err)
}

func TestLineWriter(t *testing.T) {
	t.Parallel()

	var lines []string
	w := &lineWriter{emit: func(line []byte) { lines = append(lines, string(line)) }}

	_, err := w.Write([]byte("first\r\nsec"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ond\nthird"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)

	require.NoError(t, w.Close())
	assert.Equal(t, []string{"first", "second", "third"}, lines)
}

func TestLogWriter_LogsAtDebug(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		logger.EXPECT().Debug("# command-line-arguments"),
		logger.EXPECT().Debug("./main.go:3:2: undefined: x"),
	)

	w := newLogWriter(logger)
	_, _ = w.Write([]byte("# command-line-arguments\n  \n./main.go:3:2: "))
	_, _ = w.Write([]byte("undefined: x"))
	require.NoError(t, w.Close())
}

func TestEventWriter_Diagnostics(t *testing.T) {
	t.Parallel()

	origins := map[string]string{
		"main.go":     "/scratch/codetask-1.go",
		"taskhost.go": "/opt/codetask/ref/taskhost.go",
	}
	w := newEventWriter(origins)

	stream := `{"ImportPath":"command-line-arguments","Action":"build-output","Output":"# command-line-arguments\n"}
{"ImportPath":"command-line-arguments","Action":"build-output","Output":"./main.go:12:3: undefined: nope\n"}
not json
{"ImportPath":"command-line-arguments","Action":"build-output","Output":"./taskhost.go:4:1: warning: odd\n./other.go:1: bad\n"}
{"ImportPath":"command-line-arguments","Action":"build-fail"}
`
	_, err := w.Write([]byte(stream))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []domain.Diagnostic{
		{File: "/scratch/codetask-1.go", Line: 12, Column: 3, Severity: domain.SeverityError, Message: "undefined: nope"},
		{File: "/opt/codetask/ref/taskhost.go", Line: 4, Column: 1, Severity: domain.SeverityWarning, Message: "odd"},
		{File: "./other.go", Line: 1, Severity: domain.SeverityError, Message: "bad"},
	}, w.diags)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	req := domain.CompileRequest{OutputPath: "/out/task.so", Options: domain.DefaultCompileOptions()}
	args := buildArgs(req, []string{"main.go", "taskhost.go"})

	assert.Equal(t, []string{
		"build", "-json", "-buildmode=plugin", "-tags=codetask",
		"-buildvcs=false", "-gcflags=-N -l",
		"-o", "/out/task.so", "main.go", "taskhost.go",
	}, args)
}
