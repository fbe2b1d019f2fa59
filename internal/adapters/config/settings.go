package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// DotEnvFileName is loaded from the working directory before settings are read.
const DotEnvFileName = ".env"

// LoadSettings reads the process settings. Sources by priority: CODETASK_*
// environment variables (a .env file in cwd included), an optional
// codetask.settings.{yaml,json,toml} in cwd, then defaults.
func LoadSettings(cwd string) (*domain.Settings, error) {
	if err := godotenv.Load(filepath.Join(cwd, DotEnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "file", DotEnvFileName)
	}

	v := viper.New()
	v.SetConfigName(domain.SettingsFileName)
	v.AddConfigPath(cwd)

	v.SetDefault("install_dir", "")
	v.SetDefault("reference_dir", "")
	v.SetDefault("scratch_dir", filepath.Join(cwd, domain.DefaultScratchPath()))
	v.SetDefault("store_dir", filepath.Join(cwd, domain.DefaultStorePath()))
	v.SetDefault("keep_scratch", false)
	v.SetDefault("debug_wait", false)
	v.SetDefault("debug_wait_timeout", "0s")
	v.SetDefault("log_json", false)
	v.SetDefault("go_binary", "go")
	v.SetDefault("jobs", runtime.GOMAXPROCS(0))
	v.SetDefault("trace", false)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(domain.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error())
		}
	}

	var dto settingsDTO
	if err := v.Unmarshal(&dto); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error())
	}
	return dto.toDomain(cwd)
}

func (dto settingsDTO) toDomain(cwd string) (*domain.Settings, error) {
	timeout, err := time.ParseDuration(dto.DebugWaitTimeout)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "debug_wait_timeout", dto.DebugWaitTimeout)
	}

	s := &domain.Settings{
		InstallDir:       absFrom(cwd, dto.InstallDir),
		ReferenceDir:     absFrom(cwd, dto.ReferenceDir),
		ScratchDir:       absFrom(cwd, dto.ScratchDir),
		StoreDir:         absFrom(cwd, dto.StoreDir),
		KeepScratch:      dto.KeepScratch,
		DebugWait:        dto.DebugWait,
		DebugWaitTimeout: timeout,
		LogJSON:          dto.LogJSON,
		GoBinary:         dto.GoBinary,
		Jobs:             max(dto.Jobs, 1),
		Trace:            dto.Trace,
		Verbose:          dto.Verbose,
	}
	if s.InstallDir == "" {
		s.InstallDir = domain.DefaultInstallDir()
	}
	if s.ReferenceDir == "" {
		s.ReferenceDir = filepath.Join(s.InstallDir, domain.ReferenceDirName)
	}
	return s, nil
}

func absFrom(cwd, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}
