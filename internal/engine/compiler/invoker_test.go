package compiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports/mocks"
	"go.trai.ch/codetask/internal/engine/compiler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	invoker *compiler.Invoker
	backend *mocks.MockCompiler
	logger  *mocks.MockLogger
	scratch string
}

func newFixture(t *testing.T, keep bool) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockCompiler(ctrl)
	backend.EXPECT().Language().Return(domain.LanguageLua).AnyTimes()
	logger := mocks.NewMockLogger(ctrl)

	scratch := filepath.Join(t.TempDir(), "scratch")
	inv := compiler.New(logger, &domain.Settings{ScratchDir: scratch, KeepScratch: keep}, backend)
	return fixture{invoker: inv, backend: backend, logger: logger, scratch: scratch}
}

func luaDescriptor() *domain.TaskDescriptor {
	return domain.NewTaskDescriptor(domain.DescriptorSpec{
		Name:       "Greet",
		Language:   domain.LanguageLua,
		SourceCode: "return Greet",
	})
}

func scratchFiles(t *testing.T, dir, ext string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "codetask-*"+ext))
	require.NoError(t, err)
	return matches
}

func TestCompile_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	refs := []string{"/ref/taskhost.lua"}
	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
			assert.Equal(t, "Greet", req.Name)
			assert.Equal(t, refs, req.References)
			assert.Equal(t, domain.DefaultCompileOptions(), req.Options)
			assert.True(t, filepath.IsAbs(req.SourcePath))
			assert.True(t, strings.HasSuffix(req.SourcePath, ".lua"))
			assert.True(t, strings.HasSuffix(req.OutputPath, ".luaimg"))

			src, err := os.ReadFile(req.SourcePath)
			require.NoError(t, err)
			assert.Equal(t, "return Greet", string(src))

			return nil, os.WriteFile(req.OutputPath, []byte("{}"), domain.PrivateFilePerm)
		})

	artifact, err := f.invoker.Compile(context.Background(), luaDescriptor(), refs)
	require.NoError(t, err)

	assert.FileExists(t, artifact.Path)
	assert.Empty(t, scratchFiles(t, f.scratch, ".lua"), "scratch source must be removed")

	require.NoError(t, artifact.Close())
	assert.NoFileExists(t, artifact.Path)
	require.NoError(t, artifact.Close())
}

func TestCompile_KeepScratch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
			return nil, os.WriteFile(req.OutputPath, []byte("{}"), domain.PrivateFilePerm)
		})

	artifact, err := f.invoker.Compile(context.Background(), luaDescriptor(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = artifact.Close() })

	assert.Len(t, scratchFiles(t, f.scratch, ".lua"), 1)
}

func TestCompile_ErrorDiagnosticsRetainSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.logger.EXPECT().Warn("task.lua:1: warning: unused variable").Times(1)
	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
			require.NoError(t, os.WriteFile(req.OutputPath, []byte("partial"), domain.PrivateFilePerm))
			return []domain.Diagnostic{
				{File: "task.lua", Line: 1, Severity: domain.SeverityWarning, Message: "unused variable"},
				{File: "task.lua", Line: 2, Column: 4, Severity: domain.SeverityError, Message: "unexpected symbol"},
			}, nil
		})

	artifact, err := f.invoker.Compile(context.Background(), luaDescriptor(), nil)
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.Equal(t, domain.CodeCompilationFailure, domain.CodeOf(err))

	sources := scratchFiles(t, f.scratch, ".lua")
	require.Len(t, sources, 1)
	assert.Empty(t, scratchFiles(t, f.scratch, ".luaimg"))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	meta := zErr.Metadata()
	assert.Equal(t, sources[0], meta["source"])
	assert.Equal(t, []string{"task.lua:2:4: error: unexpected symbol"}, meta["diagnostics"])
}

func TestCompile_BackendErrorRetainsSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	boom := errors.New("toolchain missing")
	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := f.invoker.Compile(context.Background(), luaDescriptor(), nil)
	require.ErrorIs(t, err, boom)
	assert.True(t, domain.Is(err, domain.ErrCompilationFailed))
	assert.Len(t, scratchFiles(t, f.scratch, ".lua"), 1)
}

func TestCompile_CancelledContextStillCompiles(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
			assert.NoError(t, ctx.Err())
			return nil, os.WriteFile(req.OutputPath, []byte("{}"), domain.PrivateFilePerm)
		})

	artifact, err := f.invoker.Compile(ctx, luaDescriptor(), nil)
	require.NoError(t, err)
	require.NoError(t, artifact.Close())
}

func TestCompile_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	desc := domain.NewTaskDescriptor(domain.DescriptorSpec{
		Name:       "Greet",
		Language:   domain.LanguageGo,
		SourceCode: "package main",
	})
	_, err := f.invoker.Compile(context.Background(), desc, nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnsupportedLanguage, domain.CodeOf(err))
	assert.NoDirExists(t, f.scratch)
}

func TestCompile_ConcurrentScratchNamesAreUnique(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	const n = 8
	seen := make(chan string, n)
	f.backend.EXPECT().Compile(gomock.Any(), gomock.Any()).Times(n).DoAndReturn(
		func(_ context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error) {
			seen <- req.SourcePath
			return nil, os.WriteFile(req.OutputPath, []byte("{}"), domain.PrivateFilePerm)
		})

	errs := make(chan error, n)
	for range n {
		go func() {
			artifact, err := f.invoker.Compile(context.Background(), luaDescriptor(), nil)
			if err == nil {
				err = artifact.Close()
			}
			errs <- err
		}()
	}
	for range n {
		require.NoError(t, <-errs)
	}
	close(seen)

	unique := make(map[string]bool)
	for p := range seen {
		unique[p] = true
	}
	assert.Len(t, unique, n)
}
