// Package loader loads compiled artifacts into the process and owns the
// scoped dependency resolution hook used while tasks load and run.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader picks the runtime for a language and loads artifacts with whichever
// strategy the runtime supports.
type Loader struct {
	runtimes   map[domain.Language]ports.Runtime
	installDir string
	logger     ports.Logger

	// dependencies caches handles by absolute path for the lifetime of the
	// loader. Racing loads of the same path keep the first result.
	dependencies sync.Map // string -> any

	mu     sync.Mutex
	scopes map[*Scope]struct{}
}

// New creates a Loader. Dependencies are looked up in settings.InstallDir.
func New(logger ports.Logger, settings *domain.Settings, runtimes ...ports.Runtime) *Loader {
	l := &Loader{
		runtimes:   make(map[domain.Language]ports.Runtime, len(runtimes)),
		installDir: settings.InstallDir,
		logger:     logger,
		scopes:     make(map[*Scope]struct{}),
	}
	if l.installDir == "" {
		l.installDir = domain.DefaultInstallDir()
	}
	for _, rt := range runtimes {
		l.runtimes[rt.Language()] = rt
	}
	return l
}

// Load loads artifact into the process. A dependency scope is active for the
// duration of the load.
func (l *Loader) Load(ctx context.Context, lang domain.Language, artifact *domain.Artifact) (domain.Module, error) {
	rt, ok := l.runtimes[lang]
	if !ok {
		return nil, zerr.With(domain.ErrUnsupportedLanguage, "language", lang.String())
	}

	scope := l.Acquire(lang)
	defer func() { _ = scope.Close() }()
	env := domain.TaskEnv{Resolver: scope}
	name := filepath.Base(artifact.Path)

	switch r := rt.(type) {
	case ports.BufferLoader:
		data, err := os.ReadFile(artifact.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", artifact.Path)
		}
		return r.LoadBuffer(ctx, name, data, env)
	case ports.StreamLoader:
		f, err := os.Open(artifact.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", artifact.Path)
		}
		defer func() { _ = f.Close() }()
		return r.LoadStream(ctx, name, f, env)
	default:
		err := zerr.With(domain.ErrModuleLoadFailed, "reason", "runtime cannot load modules on this platform")
		return nil, zerr.With(err, "language", lang.String())
	}
}

// Resolve returns the type exported by mod under the task name.
func (l *Loader) Resolve(mod domain.Module, name string) (domain.CompiledType, error) {
	if mod == nil {
		return nil, zerr.With(domain.ErrModuleLoadFailed, "type", name)
	}
	t, ok := mod.LookupType(name)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrTypeNotFound, domain.ErrModuleLoadFailed.Error()), "type", name)
	}
	return t, nil
}

// Acquire registers a dependency scope for lang. The caller must Close it.
func (l *Loader) Acquire(lang domain.Language) *Scope {
	s := &Scope{loader: l}
	if deps, ok := l.runtimes[lang].(ports.DependencyLoader); ok {
		s.deps = deps
	}

	l.mu.Lock()
	l.scopes[s] = struct{}{}
	l.mu.Unlock()
	return s
}

// ActiveScopes returns the number of scopes not yet closed.
func (l *Loader) ActiveScopes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scopes)
}

func (l *Loader) release(s *Scope) {
	l.mu.Lock()
	delete(l.scopes, s)
	l.mu.Unlock()
}
