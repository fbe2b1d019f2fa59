// Package cache memoises compiled modules for the lifetime of the process.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"unique"

	"go.trai.ch/codetask/internal/core/domain"
)

// CompileFunc produces the module for a descriptor that is not cached yet.
type CompileFunc func(ctx context.Context) (domain.CompiledModule, error)

type entry struct {
	desc   *domain.TaskDescriptor
	module domain.CompiledModule
}

// Cache maps descriptors to compiled modules. Entries are never evicted.
//
// Concurrent misses for the same descriptor may each compile. The first result
// stored becomes the canonical entry and is returned to every caller.
type Cache struct {
	entries  sync.Map // unique.Handle[string] -> entry
	size     atomic.Int64
	compiles atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{}
}

// GetOrCompile returns the cached module for desc, compiling it on a miss.
// The boolean reports whether the module came from the cache without compiling.
// Failed compilations are not stored.
func (c *Cache) GetOrCompile(
	ctx context.Context,
	desc *domain.TaskDescriptor,
	compile CompileFunc,
) (domain.CompiledModule, bool, error) {
	key := unique.Make(desc.Key())

	if v, ok := c.entries.Load(key); ok {
		return v.(entry).module, true, nil
	}

	module, err := compile(ctx)
	if err != nil {
		return domain.CompiledModule{}, false, err
	}
	c.compiles.Add(1)

	actual, loaded := c.entries.LoadOrStore(key, entry{desc: desc, module: module})
	if !loaded {
		c.size.Add(1)
	}
	return actual.(entry).module, false, nil
}

// Lookup returns the cached module for desc without compiling.
func (c *Cache) Lookup(desc *domain.TaskDescriptor) (domain.CompiledModule, bool) {
	v, ok := c.entries.Load(unique.Make(desc.Key()))
	if !ok {
		return domain.CompiledModule{}, false
	}
	return v.(entry).module, true
}

// Len returns the number of canonical entries.
func (c *Cache) Len() int {
	return int(c.size.Load())
}

// Compiles returns how many successful compilations ran, including those that
// lost a race and were discarded.
func (c *Cache) Compiles() int {
	return int(c.compiles.Load())
}

// Range calls fn for every entry until fn returns false.
func (c *Cache) Range(fn func(desc *domain.TaskDescriptor, module domain.CompiledModule) bool) {
	c.entries.Range(func(_, v any) bool {
		e := v.(entry)
		return fn(e.desc, e.module)
	})
}
