package factory

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/fs"        //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/logger"    //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/telemetry" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/engine/codegen"
	"go.trai.ch/codetask/internal/engine/compiler"
	"go.trai.ch/codetask/internal/engine/loader"
	"go.trai.ch/codetask/internal/engine/parser"
)

// NodeID is the unique identifier for the task factory Graft node.
const NodeID graft.ID = "engine.factory"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			parser.NodeID,
			codegen.NodeID,
			fs.ResolverNodeID,
			compiler.NodeID,
			loader.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Factory, error) {
			p, err := graft.Dep[*parser.Parser](ctx)
			if err != nil {
				return nil, err
			}
			engine, err := graft.Dep[*codegen.Engine](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[ports.ReferenceResolver](ctx)
			if err != nil {
				return nil, err
			}
			invoker, err := graft.Dep[*compiler.Invoker](ctx)
			if err != nil {
				return nil, err
			}
			l, err := graft.Dep[*loader.Loader](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(p, engine, resolver, invoker, l, tracer, log), nil
		},
	})
}
