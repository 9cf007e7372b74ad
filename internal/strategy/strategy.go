// Package strategy models memory strategy as a first-class dimension of a
// Bract type, orthogonal to ownership. A type's shape (its structural
// description in internal/types) and its strategy form a product: two
// values with the same shape but different strategies are different types
// for unification purposes, the same way KindReference's Mutable flag makes
// &T and &mut T distinct.
package strategy

import "fmt"

// Strategy enumerates the memory strategies a Bract value can carry.
type Strategy uint8

const (
	// Unset marks a type that has not yet been assigned a strategy, either
	// because inference has not reached it or because the type has no
	// strategy dimension (e.g. a bare scalar before wrapping).
	Unset Strategy = iota
	// Stack places the value inline in the enclosing frame. No allocation,
	// no bookkeeping; freed when the frame returns.
	Stack
	// Linear requires the value be consumed exactly once along every path;
	// backed by a single heap allocation with no reference count.
	Linear
	// Region places the value in an arena; all values in the region are
	// released together when the region closes.
	Region
	// Manual hands the programmer bract_malloc/bract_free directly; no
	// compiler-inserted free, and a missing free or double free is a
	// diagnostic rather than a runtime trap.
	Manual
	// SmartPtr wraps the value in an atomically reference-counted cell.
	SmartPtr
)

func (s Strategy) String() string {
	switch s {
	case Stack:
		return "stack"
	case Linear:
		return "linear"
	case Region:
		return "region"
	case Manual:
		return "manual"
	case SmartPtr:
		return "smartptr"
	default:
		return "unset"
	}
}

// SafetyLevel classifies how much of a strategy's safety is enforced at
// compile time versus left to the programmer or a runtime trap.
type SafetyLevel uint8

const (
	// SafeStatic means every misuse is a compile-time diagnostic.
	SafeStatic SafetyLevel = iota
	// SafeRuntime means misuse is caught by an inserted runtime check.
	SafeRuntime
	// Unchecked means the compiler does not guard against misuse.
	Unchecked
)

// SafetyLevel reports how strictly the compiler polices this strategy.
func (s Strategy) SafetyLevel() SafetyLevel {
	switch s {
	case Stack, Linear, Region:
		return SafeStatic
	case SmartPtr:
		return SafeRuntime
	case Manual:
		return Unchecked
	default:
		return SafeStatic
	}
}

// Cost is a coarse, unitless estimate of the runtime overhead a strategy
// contributes to each access of a value, used by internal/contract when no
// finer-grained cost model applies. Stack is free; Linear and Manual cost a
// single allocation/free pair; Region amortizes allocation across its
// lifetime; SmartPtr additionally pays an atomic increment/decrement per
// alias.
type Cost struct {
	AllocOps int // heap allocations attributable to one instance
	AtomicOps int // atomic refcount operations per alias taken
}

// Cost returns the nominal allocation/atomic-op cost of holding one value
// under this strategy.
func (s Strategy) Cost() Cost {
	switch s {
	case Stack:
		return Cost{}
	case Linear, Manual:
		return Cost{AllocOps: 1}
	case Region:
		return Cost{AllocOps: 0} // amortized against the region, not the value
	case SmartPtr:
		return Cost{AllocOps: 1, AtomicOps: 1}
	default:
		return Cost{}
	}
}

// IsHeap reports whether values under this strategy live on the heap rather
// than inline in the enclosing frame or region arena.
func (s Strategy) IsHeap() bool {
	return s == Linear || s == Manual
}

// RequiresExplicitFree reports whether the programmer, not the compiler or a
// refcount, is responsible for releasing the value.
func (s Strategy) RequiresExplicitFree() bool {
	return s == Manual
}

// ParseAnnotation maps a `@strategy(name)` or wrapper-constructor spelling
// (as recognized by sema's magic-name table) to a Strategy. Returns false
// for unrecognized spellings so callers can fall back to Unset and let
// inference proceed.
func ParseAnnotation(name string) (Strategy, bool) {
	switch name {
	case "stack":
		return Stack, true
	case "linear":
		return Linear, true
	case "region":
		return Region, true
	case "manual":
		return Manual, true
	case "smartptr", "smart_ptr", "shared":
		return SmartPtr, true
	default:
		return Unset, false
	}
}

// String formats a strategy together with a source name, used in
// diagnostics such as "expected linear, found smartptr (via SmartPtr::new)".
func Describe(s Strategy, via string) string {
	if via == "" {
		return s.String()
	}
	return fmt.Sprintf("%s (via %s)", s, via)
}
