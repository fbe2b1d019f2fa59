package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/adapters/config"
	"go.trai.ch/codetask/internal/core/domain"
)

func TestLoadSettings_Defaults(t *testing.T) {
	cwd := t.TempDir()

	settings, err := config.LoadSettings(cwd)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, domain.DefaultScratchPath()), settings.ScratchDir)
	assert.Equal(t, filepath.Join(cwd, domain.DefaultStorePath()), settings.StoreDir)
	assert.Equal(t, filepath.Join(settings.InstallDir, domain.ReferenceDirName), settings.ReferenceDir)
	assert.Equal(t, "go", settings.GoBinary)
	assert.False(t, settings.KeepScratch)
	assert.Positive(t, settings.Jobs)
}

func TestLoadSettings_EnvironmentOverrides(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv("CODETASK_KEEP_SCRATCH", "true")
	t.Setenv("CODETASK_DEBUG_WAIT_TIMEOUT", "30s")
	t.Setenv("CODETASK_INSTALL_DIR", "/opt/codetask")
	t.Setenv("CODETASK_JOBS", "0")
	t.Setenv("CODETASK_VERBOSE", "1")

	settings, err := config.LoadSettings(cwd)
	require.NoError(t, err)

	assert.True(t, settings.KeepScratch)
	assert.Equal(t, 30*time.Second, settings.DebugWaitTimeout)
	assert.Equal(t, "/opt/codetask", settings.InstallDir)
	assert.Equal(t, "/opt/codetask/ref", settings.ReferenceDir)
	assert.Equal(t, 1, settings.Jobs)
	assert.True(t, settings.Verbose)
}

func TestLoadSettings_FileAndDotEnv(t *testing.T) {
	cwd := t.TempDir()
	createFile(t, cwd, domain.SettingsFileName+".yaml", "scratch_dir: tmp/scratch\ngo_binary: /usr/local/go/bin/go\n")
	createFile(t, cwd, ".env", "CODETASK_LOG_JSON=true\n")
	t.Setenv("CODETASK_LOG_JSON", "")
	require.NoError(t, os.Unsetenv("CODETASK_LOG_JSON"))

	settings, err := config.LoadSettings(cwd)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, "tmp", "scratch"), settings.ScratchDir)
	assert.Equal(t, "/usr/local/go/bin/go", settings.GoBinary)
	assert.True(t, settings.LogJSON)
}

func TestLoadSettings_BadTimeout(t *testing.T) {
	t.Setenv("CODETASK_DEBUG_WAIT_TIMEOUT", "soon")

	_, err := config.LoadSettings(t.TempDir())
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.ErrSettingsLoadFailed))
}
