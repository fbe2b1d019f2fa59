package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/config"   //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/goplugin" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/logger"   //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/lua"      //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
)

// NodeID is the unique identifier for the compiler invoker Graft node.
const NodeID graft.ID = "engine.compiler"

func init() {
	graft.Register(graft.Node[*Invoker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			config.SettingsNodeID,
			lua.CompilerNodeID,
			goplugin.CompilerNodeID,
		},
		Run: func(ctx context.Context) (*Invoker, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			luaCompiler, err := graft.Dep[*lua.Compiler](ctx)
			if err != nil {
				return nil, err
			}
			goCompiler, err := graft.Dep[*goplugin.Compiler](ctx)
			if err != nil {
				return nil, err
			}
			return New(log, settings, luaCompiler, goCompiler), nil
		},
	})
}
