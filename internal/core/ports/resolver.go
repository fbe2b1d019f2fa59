package ports

import "go.trai.ch/codetask/internal/core/domain"

// ReferenceResolver maps a descriptor's references to absolute module paths.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ReferenceResolver interface {
	// Resolve returns the deduplicated absolute paths of every reference of desc,
	// including defaults. It fails only after trying every candidate.
	Resolve(desc *domain.TaskDescriptor) ([]string, error)
}
