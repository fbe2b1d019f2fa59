//go:build (linux || darwin || freebsd) && cgo

package goplugin

import (
	"context"
	"io"
	"plugin"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// LoadStream implements ports.StreamLoader.
func (r *Runtime) LoadStream(ctx context.Context, name string, src io.Reader, _ domain.TaskEnv) (domain.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", name)
	}

	path, err := r.store.Put(src, domain.LanguageGo.ArtifactExtension())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", name)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", name), "path", path)
	}
	return newModule(func(sym string) (any, error) {
		return p.Lookup(sym)
	}), nil
}
