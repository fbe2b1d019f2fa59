package watcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/adapters/watcher"
	"go.trai.ch/codetask/internal/core/domain"
)

func TestContentCache_Changed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	project := filepath.Join(dir, domain.ProjectFileName)
	source := filepath.Join(dir, "task.lua")
	require.NoError(t, os.WriteFile(project, []byte("version: \"1\"\n"), domain.FilePerm))
	require.NoError(t, os.WriteFile(source, []byte("return 1"), domain.FilePerm))

	c := watcher.NewContentCache()
	c.Track(project, source, filepath.Join(dir, "missing.lua"))

	// Rewriting identical content is not a change.
	require.NoError(t, os.WriteFile(source, []byte("return 1"), domain.FilePerm))
	assert.Empty(t, c.Changed([]string{project, source}))

	require.NoError(t, os.WriteFile(source, []byte("return 2"), domain.FilePerm))
	assert.Equal(t, []string{source}, c.Changed([]string{source, project}))
	assert.Empty(t, c.Changed([]string{source}))

	created := filepath.Join(dir, "new.lua")
	require.NoError(t, os.WriteFile(created, []byte("x"), domain.FilePerm))
	require.NoError(t, os.Remove(project))
	assert.Equal(t, []string{project, created}, c.Changed([]string{created, project}))

	// Untracked files that do not exist and directories are ignored.
	assert.Empty(t, c.Changed([]string{filepath.Join(dir, "gone.lua"), dir}))
}
