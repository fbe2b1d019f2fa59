package domain

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Module is a compiled binary loaded into the running process.
type Module interface {
	// LookupType returns the exported task type with the given name.
	LookupType(name string) (CompiledType, bool)
}

// Member is a public instance property of a compiled task type.
type Member struct {
	Name    string
	Type    ParameterType
	Markers []string
}

// HasMarker reports whether the member carries the named marker.
func (m Member) HasMarker(marker string) bool {
	for _, mk := range m.Markers {
		if mk == marker {
			return true
		}
	}
	return false
}

// CompiledType is a task type exported by a loaded module.
type CompiledType interface {
	// Name returns the type name.
	Name() string
	// Members returns the public instance properties sorted by name.
	Members() []Member
	// New creates a fresh task instance.
	New(ctx context.Context, env TaskEnv) (Instance, error)
}

// Instance is one instantiated task.
type Instance interface {
	// Set assigns a parameter from its textual form.
	Set(name string, raw string) error
	// Get returns the textual form of a parameter.
	Get(name string) (string, error)
	// Execute runs the task and reports whether it succeeded.
	Execute(ctx context.Context) (bool, error)
	// Close releases the instance.
	Close() error
}

// LogLevel is the severity of a message emitted by a running task.
type LogLevel uint8

const (
	// LogInfo is a normal message.
	LogInfo LogLevel = iota
	// LogWarning is a warning.
	LogWarning
	// LogError is an error; a task that logged one is considered failed.
	LogError
)

// LogSink receives messages written by a running task.
type LogSink func(level LogLevel, msg string)

// DependencyResolver is consulted by a runtime when a dependency cannot be found.
// Returning false declines and lets default resolution continue.
type DependencyResolver interface {
	Resolve(name string) (any, bool)
}

// TaskEnv is what a running instance may use from the host.
type TaskEnv struct {
	Resolver DependencyResolver
	Sink     LogSink
}

// CompiledModule is a loaded module together with the resolved task type.
// It is owned by the compilation cache and lives for the rest of the process.
type CompiledModule struct {
	Module Module
	Type   CompiledType
}

// Artifact is a scratch output file produced by a compiler backend.
type Artifact struct {
	Path string
	once sync.Once
	err  error
}

// NewArtifact wraps the scratch output at path.
func NewArtifact(path string) *Artifact {
	return &Artifact{Path: path}
}

// Close removes the scratch output. It is safe to call more than once.
func (a *Artifact) Close() error {
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.err = err
		}
	})
	return a.err
}
