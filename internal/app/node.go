package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/codetask/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/adapters/debugger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/engine/factory"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			factory.NodeID,
			watcher.NodeID,
			debugger.NodeID,
			telemetry.BridgeNodeID,
			cas.NodeID,
			config.SettingsNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	f, err := graft.Dep[*factory.Factory](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	waiter, err := graft.Dep[*debugger.Waiter](ctx)
	if err != nil {
		return nil, err
	}
	bridge, err := graft.Dep[*telemetry.Bridge](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[*cas.Store](ctx)
	if err != nil {
		return nil, err
	}
	settings, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, f, w, waiter, bridge, store, settings, log), nil
}
