// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/codetask/internal/adapters/cas"
	_ "go.trai.ch/codetask/internal/adapters/config"
	_ "go.trai.ch/codetask/internal/adapters/debugger"
	_ "go.trai.ch/codetask/internal/adapters/fs"
	_ "go.trai.ch/codetask/internal/adapters/goplugin"
	_ "go.trai.ch/codetask/internal/adapters/logger"
	_ "go.trai.ch/codetask/internal/adapters/lua"
	_ "go.trai.ch/codetask/internal/adapters/telemetry"
	_ "go.trai.ch/codetask/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/codetask/internal/app"
	_ "go.trai.ch/codetask/internal/engine/codegen"
	_ "go.trai.ch/codetask/internal/engine/compiler"
	_ "go.trai.ch/codetask/internal/engine/factory"
	_ "go.trai.ch/codetask/internal/engine/loader"
	_ "go.trai.ch/codetask/internal/engine/parser"
)
