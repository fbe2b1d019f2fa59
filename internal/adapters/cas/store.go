// Package cas implements a content addressable store for compiled artifacts.
package cas

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.ArtifactStore with one file per distinct content,
// named after the xxhash of its bytes.
type Store struct {
	root string
}

// NewStore creates a store rooted at path. The directory is created on first write.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = domain.DefaultStorePath()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", path)
	}
	return &Store{root: abs}, nil
}

// Path returns the root directory of the store.
func (s *Store) Path() string {
	return s.root
}

// Put copies r into the store and returns the path of the stored file.
// Content is hashed while it is written; a file already holding the same
// content is reused.
func (s *Store) Put(r io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.root, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", s.root)
	}

	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	digest := xxhash.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, digest), r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", zerr.Wrap(copyErr, domain.ErrStoreWriteFailed.Error())
	}
	if closeErr != nil {
		return "", zerr.Wrap(closeErr, domain.ErrStoreWriteFailed.Error())
	}

	final := filepath.Join(s.root, strconv.FormatUint(digest.Sum64(), 16)+ext)
	if _, err := os.Stat(final); err == nil {
		return final, nil
	}
	if err := os.Rename(tmpName, final); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", final)
	}
	return final, nil
}

// Purge removes the store directory and everything in it.
func (s *Store) Purge() error {
	if err := os.RemoveAll(s.root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove artifact store"), "path", s.root)
	}
	return nil
}
