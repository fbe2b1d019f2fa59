package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change a WatchEvent reports.
type WatchOp uint8

// Watch operations.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

var watchOpNames = [...]string{"create", "write", "remove", "rename"}

func (op WatchOp) String() string {
	if int(op) < len(watchOpNames) {
		return watchOpNames[op]
	}
	return "unknown"
}

// WatchEvent is a change below the watched project root.
type WatchEvent struct {
	// Path is absolute.
	Path      string
	Operation WatchOp
}

// Watcher reports file changes below a project root. Watch mode uses it to
// rerun tasks whose definitions or source files were edited.
type Watcher interface {
	// Start watches root and every directory below it, including directories
	// created later.
	Start(ctx context.Context, root string) error
	// Stop releases the watcher. Events ends afterwards.
	Stop() error
	Events() iter.Seq[WatchEvent]
}
