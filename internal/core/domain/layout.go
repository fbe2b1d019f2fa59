package domain

import (
	"os"
	"path/filepath"
)

const (
	// WorkDirName is the name of the internal workspace directory.
	WorkDirName = ".codetask"

	// ScratchDirName is the name of the directory holding scratch sources and outputs.
	ScratchDirName = "scratch"

	// StoreDirName is the name of the content addressable artifact store directory.
	StoreDirName = "store"

	// ReferenceDirName is the name of the reference library directory next to the binary.
	ReferenceDirName = "ref"

	// ProjectFileName is the name of the project file.
	ProjectFileName = "codetask.yaml"

	// SettingsFileName is the base name of the optional settings file.
	SettingsFileName = "codetask.settings"

	// EnvPrefix prefixes every environment variable the tool reads.
	EnvPrefix = "CODETASK"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultScratchPath returns the default scratch directory.
// It joins .codetask and scratch.
func DefaultScratchPath() string {
	return filepath.Join(WorkDirName, ScratchDirName)
}

// DefaultStorePath returns the default path for the artifact store.
// It joins .codetask and store.
func DefaultStorePath() string {
	return filepath.Join(WorkDirName, StoreDirName)
}

// DefaultInstallDir returns the directory holding the running executable.
// It falls back to the working directory when the executable cannot be located.
func DefaultInstallDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
