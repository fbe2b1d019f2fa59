package ports

import (
	"context"

	"go.trai.ch/codetask/internal/core/domain"
)

// Compiler is a language backend turning one scratch source file into an artifact.
//
//go:generate mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Language returns the language the backend compiles.
	Language() domain.Language

	// Compile compiles req.SourcePath against req.References and writes the result
	// to req.OutputPath. Diagnostics are returned even when compilation fails; an
	// error diagnostic means the output must not be used.
	Compile(ctx context.Context, req domain.CompileRequest) ([]domain.Diagnostic, error)
}
