package lua

import (
	"context"
	"os"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Runtime loads Lua images from memory.
type Runtime struct{}

// NewRuntime creates a Lua runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Language implements ports.Runtime.
func (r *Runtime) Language() domain.Language {
	return domain.LanguageLua
}

// LoadBuffer implements ports.BufferLoader. The task chunk runs once to
// discover the class it returns; instances later run it again in their own
// states.
func (r *Runtime) LoadBuffer(ctx context.Context, name string, data []byte, env domain.TaskEnv) (domain.Module, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, zerr.With(err, "artifact", name)
	}

	mod := &Module{types: make(map[string]*ClassType, 1)}
	if mod.main, err = compileChunk(img.Main, img.Name); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", name)
	}
	for _, m := range img.Modules {
		proto, err := compileChunk(m.Source, m.Name)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "module", m.Name)
		}
		mod.modules = append(mod.modules, compiledChunk{name: m.Name, proto: proto})
	}

	L, err := newState(mod.modules, env.Resolver)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrModuleLoadFailed.Error())
	}
	defer L.Close()

	ret, err := runMain(ctx, L, mod.main)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModuleLoadFailed.Error()), "artifact", name)
	}

	class, err := readClass(mod, ret)
	if err != nil {
		return nil, zerr.With(err, "artifact", name)
	}
	if class != nil {
		mod.types[class.name] = class
	}
	return mod, nil
}

// DependencyExtension implements ports.DependencyLoader.
func (r *Runtime) DependencyExtension() string {
	return domain.LanguageLua.Extension()
}

// LoadDependency implements ports.DependencyLoader. The result is a shared
// prototype that any state can instantiate.
func (r *Runtime) LoadDependency(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read dependency"), "path", path)
	}
	proto, err := compileChunk(string(data), path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to compile dependency"), "path", path)
	}
	return proto, nil
}
