// Package lua compiles and runs Lua tasks on gopher-lua.
package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Compiler checks Lua sources and bundles them into an image.
type Compiler struct{}

// NewCompiler creates a Lua compiler backend.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Language implements ports.Compiler.
func (c *Compiler) Language() domain.Language {
	return domain.LanguageLua
}

// Compile implements ports.Compiler. Every chunk is compiled to byte code so
// syntax errors surface here, not when the task runs. References that are not
// Lua sources are skipped with a warning.
func (c *Compiler) Compile(_ context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
	src, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read scratch source"), "path", req.SourcePath)
	}

	var diags []domain.Diagnostic
	if _, err := compileChunk(string(src), req.SourcePath); err != nil {
		diags = append(diags, diagnosticFor(req.SourcePath, err))
	}

	img := image{Name: req.Name, Main: string(src)}
	seen := make(map[string]string, len(req.References))
	for _, ref := range req.References {
		if !strings.EqualFold(filepath.Ext(ref), domain.LanguageLua.Extension()) {
			diags = append(diags, domain.Diagnostic{
				File:     ref,
				Severity: domain.SeverityWarning,
				Message:  "reference is not a Lua module and was ignored",
			})
			continue
		}

		name := moduleName(ref)
		if prev, ok := seen[name]; ok {
			diags = append(diags, domain.Diagnostic{
				File:     ref,
				Severity: domain.SeverityWarning,
				Message:  "module " + name + " is already provided by " + prev,
			})
			continue
		}
		seen[name] = ref

		data, err := os.ReadFile(ref)
		if err != nil {
			diags = append(diags, domain.Diagnostic{File: ref, Severity: domain.SeverityError, Message: err.Error()})
			continue
		}
		if _, err := compileChunk(string(data), ref); err != nil {
			diags = append(diags, diagnosticFor(ref, err))
			continue
		}
		img.Modules = append(img.Modules, chunk{Name: name, Source: string(data)})
	}

	if domain.HasErrors(diags) {
		return diags, nil
	}

	out, err := encodeImage(img)
	if err != nil {
		return diags, err
	}
	if err := os.WriteFile(req.OutputPath, out, domain.PrivateFilePerm); err != nil {
		return diags, zerr.With(zerr.Wrap(err, "failed to write image"), "path", req.OutputPath)
	}
	return diags, nil
}

// moduleName is the name a reference is required by: its base name without extension.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// compileChunk parses and compiles source into a prototype that any LState can
// instantiate. Prototypes are read-only and safe to share between states.
func compileChunk(source, name string) (*lua.FunctionProto, error) {
	stmts, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(stmts, name)
}

func diagnosticFor(file string, err error) domain.Diagnostic {
	d := domain.Diagnostic{File: file, Severity: domain.SeverityError, Message: err.Error()}

	var parseErr *parse.Error
	var compileErr *lua.CompileError
	switch {
	case errors.As(err, &parseErr):
		d.Line = parseErr.Pos.Line
		d.Column = parseErr.Pos.Column
		d.Message = parseErr.Message
		if parseErr.Token != "" {
			d.Message += " near '" + parseErr.Token + "'"
		}
	case errors.As(err, &compileErr):
		d.Line = compileErr.Line
		d.Message = compileErr.Message
	}
	return d
}
