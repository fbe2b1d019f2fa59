package ports

import "go.trai.ch/codetask/internal/core/domain"

// ConfigLoader defines the interface for loading the project file.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the project file. An empty path searches upwards from cwd.
	Load(cwd, path string) (*domain.Project, error)
}
