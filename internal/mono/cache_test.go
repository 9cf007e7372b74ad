package mono

import (
	"sync"
	"sync/atomic"
	"testing"

	"bract/internal/symbols"
)

// TestInstanceCacheDedupesConcurrentComputation exercises the "first worker
// to insert wins, others wait on a future" guarantee directly against
// InstanceCache, independent of the full monoBuilder recursion.
func TestInstanceCacheDedupesConcurrentComputation(t *testing.T) {
	cache := NewInstanceCache()
	key := MonoKey{Sym: symbols.SymbolID(1), ArgsKey: "int"}

	var computed atomic.Int32
	var wg sync.WaitGroup
	results := make([]*MonoFunc, 32)
	errs := make([]error, 32)

	start := make(chan struct{})
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = cache.Do(key, func() (*MonoFunc, error) {
				computed.Add(1)
				return &MonoFunc{Key: key, InstanceSym: symbols.SymbolID(42)}, nil
			})
		}(i)
	}
	close(start)
	wg.Wait()

	if got := computed.Load(); got != 1 {
		t.Fatalf("expected exactly one computation, got %d", got)
	}
	first := results[0]
	for i, r := range results {
		if errs[i] != nil {
			t.Fatalf("result %d: unexpected error %v", i, errs[i])
		}
		if r != first {
			t.Errorf("result %d: got a distinct MonoFunc pointer, want the shared winner", i)
		}
	}
}

func TestInstanceCacheDistinctKeysRunIndependently(t *testing.T) {
	cache := NewInstanceCache()
	a := MonoKey{Sym: symbols.SymbolID(1), ArgsKey: "int"}
	b := MonoKey{Sym: symbols.SymbolID(1), ArgsKey: "string"}

	ra, err := cache.Do(a, func() (*MonoFunc, error) { return &MonoFunc{Key: a}, nil })
	if err != nil {
		t.Fatalf("Do(a): %v", err)
	}
	rb, err := cache.Do(b, func() (*MonoFunc, error) { return &MonoFunc{Key: b}, nil })
	if err != nil {
		t.Fatalf("Do(b): %v", err)
	}
	if ra.Key != a || rb.Key != b {
		t.Fatalf("expected keys to round-trip distinctly, got %+v and %+v", ra.Key, rb.Key)
	}
}
