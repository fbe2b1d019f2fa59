package loader

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

// NodeID is the unique identifier for the module loader Graft node.
const NodeID graft.ID = "engine.loader"

func init() {
	graft.Register(graft.Node[*Loader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			config.SettingsNodeID,
			lua.RuntimeNodeID,
			goplugin.RuntimeNodeID,
		},
		Run: func(ctx context.Context) (*Loader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			luaRuntime, err := graft.Dep[*lua.Runtime](ctx)
			if err != nil {
				return nil, err
			}
			goRuntime, err := graft.Dep[*goplugin.Runtime](ctx)
			if err != nil {
				return nil, err
			}
			return New(log, settings, luaRuntime, goRuntime), nil
		},
	})
}
