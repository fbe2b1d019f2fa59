// Package compiler stages rendered sources in scratch files and drives the
// language backends.
package compiler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

const scratchPrefix = "codetask-"

// Invoker compiles descriptors with the backend registered for their language.
type Invoker struct {
	backends    map[domain.Language]ports.Compiler
	logger      ports.Logger
	scratchDir  string
	keepScratch bool
}

// New creates an Invoker. The last backend registered for a language wins.
func New(logger ports.Logger, settings *domain.Settings, backends ...ports.Compiler) *Invoker {
	inv := &Invoker{
		backends:    make(map[domain.Language]ports.Compiler, len(backends)),
		logger:      logger,
		scratchDir:  settings.ScratchDir,
		keepScratch: settings.KeepScratch,
	}
	if inv.scratchDir == "" {
		inv.scratchDir = domain.DefaultScratchPath()
	}
	for _, b := range backends {
		inv.backends[b.Language()] = b
	}
	return inv
}

// Compile writes the descriptor's source to a uniquely named scratch file and
// compiles it against refs.
//
// On failure the scratch source is left on disk and its path is attached to the
// returned error. On success the source is removed unless scratch retention is
// enabled, and the caller owns the returned artifact.
func (i *Invoker) Compile(ctx context.Context, desc *domain.TaskDescriptor, refs []string) (*domain.Artifact, error) {
	backend, ok := i.backends[desc.Language()]
	if !ok {
		return nil, zerr.With(domain.ErrUnsupportedLanguage, "language", desc.Language().String())
	}

	if err := os.MkdirAll(i.scratchDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrScratchWriteFailed.Error()), "path", i.scratchDir)
	}

	dir, err := filepath.Abs(i.scratchDir)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrScratchWriteFailed.Error())
	}
	base := filepath.Join(dir, scratchPrefix+uuid.NewString())
	sourcePath := base + desc.Language().Extension()
	outputPath := base + desc.Language().ArtifactExtension()

	if err := os.WriteFile(sourcePath, []byte(desc.SourceCode()), domain.PrivateFilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrScratchWriteFailed.Error()), "path", sourcePath)
	}

	// A started compile runs to completion even if the caller gives up.
	diags, compileErr := backend.Compile(context.WithoutCancel(ctx), domain.CompileRequest{
		Name:       desc.Name(),
		SourcePath: sourcePath,
		OutputPath: outputPath,
		References: refs,
		Options:    domain.DefaultCompileOptions(),
	})

	var messages []string
	for _, d := range diags {
		if d.Severity == domain.SeverityError {
			messages = append(messages, d.String())
			continue
		}
		i.logger.Warn(d.String())
	}

	if compileErr != nil || len(messages) > 0 {
		_ = os.Remove(outputPath)

		failure := domain.ErrCompilationFailed
		if compileErr != nil {
			failure = zerr.Wrap(compileErr, domain.ErrCompilationFailed.Error())
		}
		failure = zerr.With(failure, "task", desc.Name())
		failure = zerr.With(failure, "source", sourcePath)
		if len(messages) > 0 {
			failure = zerr.With(failure, "diagnostics", messages)
		}
		return nil, failure
	}

	if !i.keepScratch {
		if err := os.Remove(sourcePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			i.logger.Warn("failed to remove scratch source " + sourcePath)
		}
	}

	return domain.NewArtifact(outputPath), nil
}
