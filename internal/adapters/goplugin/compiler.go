// Package goplugin compiles Go tasks into plugins and loads them into the process.
package goplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultGoBinary is used when the settings do not name a go command.
const DefaultGoBinary = "go"

// buildTags are set for every plugin build; the host library is guarded by them.
const buildTags = "codetask"

// mainFile is the staged name of the task source.
const mainFile = "main.go"

var positionRegex = regexp.MustCompile(`^(.+?\.go):(\d+)(?::(\d+))?: (.*)$`)

// Compiler builds Go tasks with the go command.
type Compiler struct {
	tc *toolchain
}

// NewCompiler creates a Go compiler backend.
func NewCompiler(logger ports.Logger, settings *domain.Settings) *Compiler {
	binary := DefaultGoBinary
	if settings != nil && settings.GoBinary != "" {
		binary = settings.GoBinary
	}
	return &Compiler{tc: &toolchain{binary: binary, logger: logger}}
}

// Language implements ports.Compiler.
func (c *Compiler) Language() domain.Language {
	return domain.LanguageGo
}

// Compile implements ports.Compiler. Sources and references are staged into a
// private directory because the go command builds files of one directory only.
func (c *Compiler) Compile(ctx context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
	stage, err := os.MkdirTemp("", "codetask-go-")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create build directory")
	}
	defer func() { _ = os.RemoveAll(stage) }()

	origins := make(map[string]string, len(req.References)+1)
	var diags []domain.Diagnostic

	stageFile := func(path, base string) error {
		if _, dup := origins[base]; dup {
			diags = append(diags, domain.Diagnostic{
				File:     path,
				Severity: domain.SeverityWarning,
				Message:  "file " + base + " is already part of the build, skipping",
			})
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(stage, base), data, domain.PrivateFilePerm); err != nil {
			return err
		}
		origins[base] = path
		return nil
	}

	if err := stageFile(req.SourcePath, mainFile); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stage source"), "source", req.SourcePath)
	}
	for _, ref := range req.References {
		if filepath.Ext(ref) != domain.LanguageGo.Extension() {
			diags = append(diags, domain.Diagnostic{
				File:     ref,
				Severity: domain.SeverityWarning,
				Message:  "reference is not a Go source file, ignoring",
			})
			continue
		}
		if err := stageFile(ref, filepath.Base(ref)); err != nil {
			diags = append(diags, domain.Diagnostic{
				File:     ref,
				Severity: domain.SeverityError,
				Message:  err.Error(),
			})
		}
	}
	if domain.HasErrors(diags) {
		return diags, nil
	}
	if d, ok := c.checkVersion(ctx, stage, req.SourcePath); !ok {
		return append(diags, d), nil
	}

	files := make([]string, 0, len(origins))
	for base := range origins {
		files = append(files, base)
	}
	slices.Sort(files)

	events := newEventWriter(origins)
	runErr := c.tc.run(ctx, stage, buildArgs(req, files), events)
	_ = events.Close()
	diags = append(diags, events.diags...)

	if runErr != nil {
		if !domain.HasErrors(diags) {
			diags = append(diags, domain.Diagnostic{
				File:     req.SourcePath,
				Severity: domain.SeverityError,
				Message:  strings.TrimSpace(runErr.Error()),
			})
		}
		_ = os.Remove(req.OutputPath)
	}
	return diags, nil
}

// checkVersion rejects a go command whose version differs from the host's:
// plugin.Open refuses such plugins only after the whole build has run.
func (c *Compiler) checkVersion(ctx context.Context, dir, source string) (domain.Diagnostic, bool) {
	version, err := c.tc.goVersion(ctx, dir)
	if err != nil {
		return domain.Diagnostic{
			File:     source,
			Severity: domain.SeverityError,
			Message:  strings.TrimSpace(err.Error()),
		}, false
	}
	if version != hostVersion {
		return domain.Diagnostic{
			File:     source,
			Severity: domain.SeverityError,
			Message: fmt.Sprintf("%s reports %s but codetask was built with %s; "+
				"Go tasks must be built by the same toolchain (see go_binary)", c.tc.binary, version, hostVersion),
		}, false
	}
	return domain.Diagnostic{}, true
}

// buildArgs maps the compile options onto go build flags. NoStdLib has no
// meaning for Go and SharedCompilation has no equivalent. Flags that change
// how dependencies are built (-trimpath, -gcflags=all=) are never passed: the
// plugin must share those packages with the host binary.
func buildArgs(req domain.CompileRequest, files []string) []string {
	args := []string{"build", "-json", "-buildmode=plugin", "-tags=" + buildTags}
	if req.Options.Deterministic {
		args = append(args, "-buildvcs=false")
	}
	if !req.Options.Optimize {
		args = append(args, "-gcflags=-N -l")
	}
	if req.Options.Verbosity > domain.VerbosityQuiet {
		args = append(args, "-v")
	}
	args = append(args, "-o", req.OutputPath)
	return append(args, files...)
}

// eventWriter decodes the JSON events of go build -json into diagnostics.
type eventWriter struct {
	*lineWriter
	origins map[string]string
	diags   []domain.Diagnostic
}

func newEventWriter(origins map[string]string) *eventWriter {
	w := &eventWriter{origins: origins}
	w.lineWriter = &lineWriter{emit: w.event}
	return w
}

func (w *eventWriter) event(line []byte) {
	if !gjson.ValidBytes(line) {
		return
	}
	ev := gjson.ParseBytes(line)
	if ev.Get("Action").String() != "build-output" {
		return
	}
	for l := range strings.SplitSeq(ev.Get("Output").String(), "\n") {
		if d, ok := w.parse(l); ok {
			w.diags = append(w.diags, d)
		}
	}
}

// parse turns a compiler line such as "./main.go:3:2: undefined: x" into a
// diagnostic pointing at the original file.
func (w *eventWriter) parse(line string) (domain.Diagnostic, bool) {
	m := positionRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return domain.Diagnostic{}, false
	}
	file := m[1]
	if origin, ok := w.origins[filepath.Base(file)]; ok {
		file = origin
	}
	lineNo, _ := strconv.Atoi(m[2])
	col, _ := strconv.Atoi(m[3])

	sev := domain.SeverityError
	msg := m[4]
	if rest, ok := strings.CutPrefix(msg, "warning: "); ok {
		sev = domain.SeverityWarning
		msg = rest
	}
	return domain.Diagnostic{File: file, Line: lineNo, Column: col, Severity: sev, Message: msg}, true
}
