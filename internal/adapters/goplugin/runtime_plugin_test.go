//go:build (linux || darwin || freebsd) && cgo

package goplugin_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/adapters/goplugin"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestRuntime_LoadStreamStoresArtifact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, store *mocks.MockArtifactStore)
	}{
		{
			name: "store failure",
			setup: func(_ *testing.T, store *mocks.MockArtifactStore) {
				store.EXPECT().Put(gomock.Any(), ".so").Return("", errors.New("disk full"))
			},
		},
		{
			name: "stored artifact is not a plugin",
			setup: func(t *testing.T, store *mocks.MockArtifactStore) {
				store.EXPECT().Put(gomock.Any(), ".so").DoAndReturn(func(r io.Reader, ext string) (string, error) {
					data, err := io.ReadAll(r)
					require.NoError(t, err)
					assert.Equal(t, "not an ELF file", string(data))
					path := filepath.Join(t.TempDir(), "artifact"+ext)
					return path, os.WriteFile(path, data, domain.PrivateFilePerm)
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			store := mocks.NewMockArtifactStore(ctrl)
			tt.setup(t, store)

			_, err := goplugin.NewRuntime(store).LoadStream(context.Background(), "Greet",
				strings.NewReader("not an ELF file"), domain.TaskEnv{})
			require.Error(t, err)
			assert.Equal(t, domain.CodeModuleLoadFailure, domain.CodeOf(err))
		})
	}
}

func TestRuntime_LoadStreamCanceled(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockArtifactStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := goplugin.NewRuntime(store).LoadStream(ctx, "Greet", strings.NewReader(""), domain.TaskEnv{})
	require.Error(t, err)
	assert.Equal(t, domain.CodeModuleLoadFailure, domain.CodeOf(err))
}
