package goplugin

import (
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
)

// Runtime loads Go plugins. The go runtime can only open plugins from disk, so
// streamed artifacts are first written to the artifact store; identical
// plugins are opened once. Loading is only available on platforms with
// plugin support; elsewhere the runtime implements no loader.
type Runtime struct {
	store ports.ArtifactStore
}

// NewRuntime creates a Go plugin runtime backed by store.
func NewRuntime(store ports.ArtifactStore) *Runtime {
	return &Runtime{store: store}
}

// Language implements ports.Runtime.
func (r *Runtime) Language() domain.Language {
	return domain.LanguageGo
}
