// Package config loads the codetask project file and the process settings.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the project file version this loader understands.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader with the given logger reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the project file at path, or searches for codetask.yaml upwards
// from cwd when path is empty.
func (l *Loader) Load(cwd, path string) (*domain.Project, error) {
	configPath, err := l.findConfiguration(cwd, path)
	if err != nil {
		return nil, err
	}

	var file ProjectFile
	if err := l.readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if file.Version != "" && file.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", domain.ProjectFileName, file.Version, SupportedVersion))
	}

	project := &domain.Project{Path: configPath}
	names := make([]string, 0, len(file.Tasks))
	for name := range file.Tasks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		task, err := l.buildTask(project.Root(), name, file.Tasks[name])
		if err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		project.Tasks = append(project.Tasks, task)
	}
	return project, nil
}

func (l *Loader) findConfiguration(cwd, path string) (string, error) {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		path = filepath.Clean(path)
		if _, err := l.FS.Stat(path); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "path", path)
		}
		return path, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ProjectFileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) buildTask(root, name string, dto *TaskDTO) (domain.TaskConfig, error) {
	if err := domain.ValidateTaskName(name); err != nil {
		return domain.TaskConfig{}, err
	}
	if dto == nil {
		dto = &TaskDTO{}
	}

	params := make([]domain.ParameterDescriptor, 0, len(dto.Parameters))
	for _, p := range dto.Parameters {
		typ, err := domain.ParseParameterType(p.Type)
		if err != nil {
			return domain.TaskConfig{}, zerr.With(zerr.With(err, "task", name), "parameter", p.Name)
		}
		params = append(params, domain.ParameterDescriptor{
			Name:     p.Name,
			Type:     typ,
			Output:   p.Output,
			Required: p.Required,
		})
	}
	if err := domain.ValidateParameters(params); err != nil {
		return domain.TaskConfig{}, zerr.With(err, "task", name)
	}

	definition := dto.Definition
	if dto.DefinitionFile != "" {
		if strings.TrimSpace(definition) != "" {
			l.Logger.Warn(fmt.Sprintf("task %s sets both definition and definition_file, using the file", name))
		}
		defPath := dto.DefinitionFile
		if !filepath.IsAbs(defPath) {
			defPath = filepath.Join(root, defPath)
		}
		data, err := l.FS.ReadFile(defPath)
		if err != nil {
			return domain.TaskConfig{}, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "task", name), "definition_file", defPath)
		}
		definition = string(data)
	}

	return domain.TaskConfig{
		Name:       name,
		Parameters: params,
		Inputs:     dto.With,
		Definition: definition,
		BaseDir:    root,
	}, nil
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *ProjectFile) error {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
