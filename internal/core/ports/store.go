package ports

import "io"

// ArtifactStore is a content addressable store for compiled artifacts.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Put writes the content of r and returns the path it is stored at.
	// Identical content is stored once.
	Put(r io.Reader, ext string) (string, error)

	// Path returns the root directory of the store.
	Path() string
}
