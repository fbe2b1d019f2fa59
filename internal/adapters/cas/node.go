package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/config" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/domain"
)

// NodeID is the unique identifier for the artifact store Graft node.
const NodeID graft.ID = "adapter.artifact_store"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (*Store, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(settings.StoreDir)
		},
	})
}
