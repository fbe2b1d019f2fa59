package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/adapters/watcher"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/codetask/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_ReportsChangesOutsideWorkDir(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	root := t.TempDir()
	workDir := filepath.Join(root, domain.WorkDirName)
	require.NoError(t, os.MkdirAll(workDir, domain.DirPerm))

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Start(ctx, root))

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "scratch.lua"), []byte("x"), domain.FilePerm))
	target := filepath.Join(root, "task.lua")
	require.NoError(t, os.WriteFile(target, []byte("return 1"), domain.FilePerm))

	var got ports.WatchEvent
	for ev := range w.Events() {
		got = ev
		if ev.Path == target {
			break
		}
		assert.NotContains(t, ev.Path, domain.WorkDirName)
	}
	assert.Equal(t, target, got.Path)
}

func TestWatcher_EventsEndWithContext(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, t.TempDir()))
	cancel()

	for range w.Events() {
	}
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatchOp_String(t *testing.T) {
	assert.Equal(t, "create", ports.OpCreate.String())
	assert.Equal(t, "write", ports.OpWrite.String())
	assert.Equal(t, "remove", ports.OpRemove.String())
	assert.Equal(t, "rename", ports.OpRename.String())
	assert.Equal(t, "unknown", ports.WatchOp(42).String())
}
