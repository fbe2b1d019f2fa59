package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/codetask/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(".codetask", "scratch"), domain.DefaultScratchPath())
	assert.Equal(t, filepath.Join(".codetask", "store"), domain.DefaultStorePath())
	assert.True(t, filepath.IsAbs(domain.DefaultInstallDir()))
}
