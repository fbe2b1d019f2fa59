package loader

import (
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
)

var _ domain.DependencyResolver = (*Scope)(nil)

// Scope resolves dependencies a runtime cannot find on its own. It answers
// only while open; a closed scope declines every request.
type Scope struct {
	loader *Loader
	deps   ports.DependencyLoader

	mu     sync.Mutex
	closed bool
}

// Resolve implements domain.DependencyResolver. It looks for
// <installDir>/<name><ext> and declines when there is no such file.
func (s *Scope) Resolve(name string) (any, bool) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || s.deps == nil || name == "" || filepath.Base(name) != name {
		return nil, false
	}

	path := filepath.Join(s.loader.installDir, name+s.deps.DependencyExtension())
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if handle, ok := s.loader.dependencies.Load(path); ok {
		return handle, true
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, false
	}

	handle, err := s.deps.LoadDependency(path)
	if err != nil {
		s.loader.logger.Error(err)
		return nil, false
	}
	actual, _ := s.loader.dependencies.LoadOrStore(path, handle)
	return actual, true
}

// Close deregisters the scope. It is safe to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.loader.release(s)
	return nil
}
