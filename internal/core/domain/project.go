package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

var validTaskNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTaskName checks that a task name can be used as a type name in every language.
func ValidateTaskName(name string) error {
	if !validTaskNameRegex.MatchString(name) {
		return zerr.With(ErrInvalidTaskName, "task_name", name)
	}
	return nil
}

// ValidateParameters checks declared parameter names and types.
func ValidateParameters(params []ParameterDescriptor) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if !validTaskNameRegex.MatchString(p.Name) {
			return zerr.With(ErrInvalidParameterName, "parameter", p.Name)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return zerr.With(zerr.With(ErrInvalidParameterName, "parameter", p.Name), "reason", "declared twice")
		}
		seen[key] = true
		if !p.Type.Valid() {
			return zerr.With(zerr.With(ErrInvalidParameterType, "parameter", p.Name), "type", string(p.Type))
		}
	}
	return nil
}

// TaskConfig is one task declared in the project file.
type TaskConfig struct {
	Name       string
	Parameters []ParameterDescriptor
	Inputs     map[string]string
	Definition string
	// BaseDir is the directory Source attributes are resolved against.
	BaseDir string
}

// Project is the parsed project file.
type Project struct {
	// Path is the absolute path of the project file.
	Path  string
	Tasks []TaskConfig
}

// Root returns the directory containing the project file.
func (p *Project) Root() string {
	return filepath.Dir(p.Path)
}

// Task returns the task with the given name.
func (p *Project) Task(name string) (TaskConfig, bool) {
	for _, t := range p.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskConfig{}, false
}

// TaskNames returns the declared task names in declaration order.
func (p *Project) TaskNames() []string {
	names := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		names[i] = t.Name
	}
	return names
}

// Settings holds the process configuration.
type Settings struct {
	// InstallDir is where dependencies resolved by the loading hook are looked up.
	InstallDir string
	// ReferenceDir holds reference libraries looked up by short name.
	ReferenceDir string
	// ScratchDir holds scratch sources and outputs.
	ScratchDir string
	// StoreDir is the content addressable artifact store.
	StoreDir string
	// KeepScratch retains scratch sources after successful compiles.
	KeepScratch bool
	// DebugWait blocks startup until a debugger attaches.
	DebugWait bool
	// DebugWaitTimeout bounds DebugWait; zero waits forever.
	DebugWaitTimeout time.Duration
	// LogJSON switches the logger to JSON output.
	LogJSON bool
	// GoBinary is the go command used by the Go backend.
	GoBinary string
	// Jobs bounds concurrent task instantiations.
	Jobs int
	// Trace logs the duration of every factory phase.
	Trace bool
	// Verbose shows debug messages, such as go command output.
	Verbose bool
}
