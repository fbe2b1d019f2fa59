package fs

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/config" //nolint:depguard // Node wiring only
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// ResolverNodeID is the unique identifier for the reference resolver Graft node.
const ResolverNodeID graft.ID = "adapter.reference_resolver"

func init() {
	graft.Register(graft.Node[ports.ReferenceResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ReferenceResolver, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			wd, err := os.Getwd()
			if err != nil {
				return nil, zerr.Wrap(err, "failed to get working directory")
			}
			return NewReferenceResolver(settings.ReferenceDir, wd), nil
		},
	})
}
