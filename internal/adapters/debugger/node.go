package debugger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/logger" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/ports"
)

// NodeID is the unique identifier for the debugger waiter Graft node.
const NodeID graft.ID = "adapter.debugger"

func init() {
	graft.Register(graft.Node[*Waiter]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Waiter, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewWaiter(log), nil
		},
	})
}
