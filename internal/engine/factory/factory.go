// Package factory turns task definitions into ready-to-run task instances. It
// owns the compilation cache and drives parsing, rendering, compiling and
// loading.
package factory

import (
	"context"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/engine/cache"
	"go.trai.ch/codetask/internal/engine/codegen"
	"go.trai.ch/codetask/internal/engine/compiler"
	"go.trai.ch/codetask/internal/engine/loader"
	"go.trai.ch/codetask/internal/engine/parser"
	"go.trai.ch/codetask/internal/engine/reflector"
)

// TaskRequest is one task as declared by the host.
type TaskRequest struct {
	Name       string
	Definition string
	Parameters []domain.ParameterDescriptor
	// BaseDir resolves relative Source attributes.
	BaseDir string
}

// PreparedTask is a compiled and loaded task type.
type PreparedTask struct {
	// Descriptor carries the rendered source.
	Descriptor *domain.TaskDescriptor
	Compiled   domain.CompiledModule
	// Parameters is the declared list, or the reflected one for class bodies.
	Parameters []domain.ParameterDescriptor
	// CacheHit reports that no compilation was needed.
	CacheHit bool
}

// Factory is the long-lived root of the task pipeline. Create one per process
// and share it.
type Factory struct {
	parser   *parser.Parser
	engine   *codegen.Engine
	resolver ports.ReferenceResolver
	compiler *compiler.Invoker
	loader   *loader.Loader
	tracer   ports.Tracer
	logger   ports.Logger
	cache    *cache.Cache
}

// New creates a Factory with an empty cache.
func New(
	p *parser.Parser,
	engine *codegen.Engine,
	resolver ports.ReferenceResolver,
	invoker *compiler.Invoker,
	l *loader.Loader,
	tracer ports.Tracer,
	logger ports.Logger,
) *Factory {
	return &Factory{
		parser:   p,
		engine:   engine,
		resolver: resolver,
		compiler: invoker,
		loader:   l,
		tracer:   tracer,
		logger:   logger,
		cache:    cache.New(),
	}
}

// Cache exposes the compilation cache for diagnostics.
func (f *Factory) Cache() *cache.Cache {
	return f.cache
}

// Render parses req and returns the descriptor carrying the generated source.
func (f *Factory) Render(ctx context.Context, req TaskRequest) (*domain.TaskDescriptor, error) {
	desc, err := f.parse(ctx, req)
	if err != nil {
		return nil, err
	}
	return f.render(ctx, desc, req.Parameters)
}

// Prepare returns the compiled task type for req, compiling it only if no
// equal descriptor was compiled before.
func (f *Factory) Prepare(ctx context.Context, req TaskRequest) (*PreparedTask, error) {
	ctx, span := f.tracer.Start(ctx, "prepare", ports.WithAttribute("task", req.Name))
	defer span.End()

	rendered, err := f.Render(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	compiled, hit, err := f.cache.GetOrCompile(ctx, rendered, func(ctx context.Context) (domain.CompiledModule, error) {
		return f.compile(ctx, rendered)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("cache_hit", hit)

	params := req.Parameters
	if rendered.CodeType() == domain.CodeTypeClass {
		params = reflector.Reflect(compiled.Type)
	}
	return &PreparedTask{
		Descriptor: rendered,
		Compiled:   compiled,
		Parameters: params,
		CacheHit:   hit,
	}, nil
}

func (f *Factory) parse(ctx context.Context, req TaskRequest) (*domain.TaskDescriptor, error) {
	_, span := f.tracer.Start(ctx, "parse", ports.WithAttribute("task", req.Name))
	defer span.End()

	desc, err := f.parser.Parse(parser.ParseRequest{
		Name:       req.Name,
		Definition: req.Definition,
		Parameters: req.Parameters,
		BaseDir:    req.BaseDir,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return desc, nil
}

func (f *Factory) render(ctx context.Context, desc *domain.TaskDescriptor, params []domain.ParameterDescriptor) (*domain.TaskDescriptor, error) {
	_, span := f.tracer.Start(ctx, "render", ports.WithAttribute("task", desc.Name()))
	defer span.End()

	source, err := f.engine.Render(desc, params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return desc.WithSourceCode(source), nil
}

// compile resolves references, compiles and loads desc. The scratch output
// is removed on every path once loading is done.
func (f *Factory) compile(ctx context.Context, desc *domain.TaskDescriptor) (domain.CompiledModule, error) {
	cctx, span := f.tracer.Start(ctx, "compile",
		ports.WithAttribute("task", desc.Name()),
		ports.WithAttribute("language", desc.Language().String()),
	)
	refs, err := f.resolver.Resolve(desc)
	if err != nil {
		span.RecordError(err)
		span.End()
		return domain.CompiledModule{}, err
	}
	span.SetAttribute("references", refs)

	artifact, err := f.compiler.Compile(cctx, desc, refs)
	if err != nil {
		span.RecordError(err)
		span.End()
		return domain.CompiledModule{}, err
	}
	span.End()
	defer func() {
		if err := artifact.Close(); err != nil {
			f.logger.Warn("failed to remove compiled output " + artifact.Path)
		}
	}()

	lctx, span := f.tracer.Start(ctx, "load", ports.WithAttribute("task", desc.Name()))
	defer span.End()

	mod, err := f.loader.Load(lctx, desc.Language(), artifact)
	if err != nil {
		span.RecordError(err)
		return domain.CompiledModule{}, err
	}
	typ, err := f.loader.Resolve(mod, desc.Name())
	if err != nil {
		span.RecordError(err)
		return domain.CompiledModule{}, err
	}
	return domain.CompiledModule{Module: mod, Type: typ}, nil
}
