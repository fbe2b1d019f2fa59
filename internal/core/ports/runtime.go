package ports

import (
	"context"
	"io"

	"go.trai.ch/codetask/internal/core/domain"
)

// Runtime loads compiled artifacts of one language into the process.
// A runtime advertises how it can load by implementing BufferLoader or
// StreamLoader; which ones are available is fixed when the binary is built.
type Runtime interface {
	// Language returns the language of the artifacts the runtime loads.
	Language() domain.Language
}

// BufferLoader loads a module from its complete bytes. Dependencies the module
// needs while loading are looked up through env.
type BufferLoader interface {
	LoadBuffer(ctx context.Context, name string, data []byte, env domain.TaskEnv) (domain.Module, error)
}

// StreamLoader loads a module from a stream. Dependencies the module needs
// while loading are looked up through env.
type StreamLoader interface {
	LoadStream(ctx context.Context, name string, r io.Reader, env domain.TaskEnv) (domain.Module, error)
}

// DependencyLoader loads a dependency found by the resolution hook.
type DependencyLoader interface {
	// DependencyExtension is appended to dependency names when looking them up.
	DependencyExtension() string
	// LoadDependency loads the dependency at the absolute path.
	LoadDependency(path string) (any, error)
}
