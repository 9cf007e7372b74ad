package mono

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// InstanceCache serializes access to a MonoModule's Funcs/FuncBySym maps and
// collapses duplicate concurrent requests to instantiate the same
// (symbol, type-args) pair into one computation: "first worker to insert
// wins, others wait on a future" (spec.md §5's description of the
// monomorphization cache). A monoBuilder drives ensureFunc from a single
// goroutine today, but routing every instantiation through the cache makes
// the same builder safe to drive from a future per-function analysis pool
// without re-deriving this synchronization later.
type InstanceCache struct {
	mu sync.Mutex
	sf singleflight.Group
}

// NewInstanceCache returns a cache ready to guard one MonoModule's maps.
func NewInstanceCache() *InstanceCache {
	return &InstanceCache{}
}

// Lock and Unlock guard the MonoModule maps a caller reads or writes inside
// a Do callback, or outside it when no dedup is needed (e.g. a plain lookup).
func (c *InstanceCache) Lock() {
	if c != nil {
		c.mu.Lock()
	}
}

func (c *InstanceCache) Unlock() {
	if c != nil {
		c.mu.Unlock()
	}
}

// Do runs fn at most once per distinct key even under concurrent callers;
// a caller that loses the race blocks until the winner finishes and then
// receives the same result, rather than recomputing (and re-inserting) it.
func (c *InstanceCache) Do(key MonoKey, fn func() (*MonoFunc, error)) (*MonoFunc, error) {
	if c == nil {
		return fn()
	}
	v, err, _ := c.sf.Do(fmt.Sprintf("%d#%s", key.Sym, key.ArgsKey), func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*MonoFunc), nil
}
