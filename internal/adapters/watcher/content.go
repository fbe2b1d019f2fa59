package watcher

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"
	"sync"
	"unique"

	"github.com/cespare/xxhash/v2"
)

// ContentCache remembers file content hashes so that writes which leave a
// file unchanged do not trigger a rerun.
type ContentCache struct {
	mu   sync.Mutex
	sums map[unique.Handle[string]]uint64
}

// NewContentCache creates an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{sums: make(map[unique.Handle[string]]uint64)}
}

// Track records the current content of paths. Missing files are ignored.
func (c *ContentCache) Track(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range paths {
		if sum, err := hashFile(p); err == nil {
			c.sums[unique.Make(p)] = sum
		}
	}
}

// Changed returns the sorted subset of paths whose content differs from what
// was last recorded, and records the new state. A file seen for the first
// time counts as changed; so does a tracked file that disappeared.
func (c *ContentCache) Changed(paths []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []string
	for _, p := range paths {
		h := unique.Make(p)
		old, tracked := c.sums[h]

		sum, err := hashFile(p)
		switch {
		case err != nil:
			if tracked {
				delete(c.sums, h)
				changed = append(changed, p)
			}
		case !tracked || sum != old:
			c.sums[h] = sum
			changed = append(changed, p)
		}
	}
	slices.Sort(changed)
	return changed
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, &fs.PathError{Op: "hash", Path: path, Err: errors.New("is a directory")}
	}

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
