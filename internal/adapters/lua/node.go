package lua

import (
	"context"

	"github.com/grindlemire/graft"
)

const (
	// CompilerNodeID is the unique identifier for the Lua compiler Graft node.
	CompilerNodeID graft.ID = "adapter.lua.compiler"
	// RuntimeNodeID is the unique identifier for the Lua runtime Graft node.
	RuntimeNodeID graft.ID = "adapter.lua.runtime"
)

func init() {
	graft.Register(graft.Node[*Compiler]{
		ID:        CompilerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Compiler, error) {
			return NewCompiler(), nil
		},
	})

	graft.Register(graft.Node[*Runtime]{
		ID:        RuntimeNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Runtime, error) {
			return NewRuntime(), nil
		},
	})
}
