package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/core/ports"
)

// NodeID identifies the process logger. The app layer switches it to JSON or
// verbose output once the command line is parsed.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run:       func(context.Context) (ports.Logger, error) { return New(), nil },
	})
}
