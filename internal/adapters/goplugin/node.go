package goplugin

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/cas"    //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/config" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/adapters/logger" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
)

const (
	// CompilerNodeID is the unique identifier for the Go compiler Graft node.
	CompilerNodeID graft.ID = "adapter.goplugin.compiler"
	// RuntimeNodeID is the unique identifier for the Go plugin runtime Graft node.
	RuntimeNodeID graft.ID = "adapter.goplugin.runtime"
)

func init() {
	graft.Register(graft.Node[*Compiler]{
		ID:        CompilerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, config.SettingsNodeID},
		Run: func(ctx context.Context) (*Compiler, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewCompiler(log, settings), nil
		},
	})

	graft.Register(graft.Node[*Runtime]{
		ID:        RuntimeNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.NodeID},
		Run: func(ctx context.Context) (*Runtime, error) {
			store, err := graft.Dep[*cas.Store](ctx)
			if err != nil {
				return nil, err
			}
			return NewRuntime(store), nil
		},
	})
}
