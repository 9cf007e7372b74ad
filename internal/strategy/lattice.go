package strategy

// Join computes the least upper bound of two strategies under unification,
// mirroring how internal/types.Interner.Unify would need to agree on a
// single shape for two occurrences of "the same" type variable. Unlike
// shape unification, the strategy lattice is not a simple equality check:
// Stack values can always be rewrapped into any heap strategy when moved
// into a heap-shaped context (a stack-allocated struct copied into a region
// is just a region value), but two distinct heap strategies never unify,
// because their runtime representations and release disciplines differ.
//
// join[a][b] == Unset signals "no unification possible"; callers report an
// incompatible-strategies diagnostic in that case.
var join = [6][6]Strategy{
	//              Unset   Stack   Linear  Region  Manual  SmartPtr
	/*Unset*/ {Unset, Stack, Linear, Region, Manual, SmartPtr},
	/*Stack*/ {Stack, Stack, Linear, Region, Manual, SmartPtr},
	/*Linear*/ {Linear, Linear, Linear, Unset, Unset, Unset},
	/*Region*/ {Region, Region, Unset, Region, Unset, Unset},
	/*Manual*/ {Manual, Manual, Unset, Unset, Manual, Unset},
	/*SmartPtr*/ {SmartPtr, SmartPtr, Unset, Unset, Unset, SmartPtr},
}

// Join returns the unified strategy for a and b, and false if they cannot
// be unified (two different, fixed heap strategies).
func Join(a, b Strategy) (Strategy, bool) {
	if int(a) >= len(join) || int(b) >= len(join) {
		return Unset, false
	}
	r := join[a][b]
	return r, r != Unset || (a == Unset && b == Unset)
}

// Unifiable reports whether a and b have a defined join.
func Unifiable(a, b Strategy) bool {
	_, ok := Join(a, b)
	return ok
}

// AllowedSet is a bitmask of strategies, used to constrain a strategy
// variable during inference (e.g. a `required_strategy` performance
// contract narrows a callee's parameter to a single bit).
type AllowedSet uint8

// Bit returns the AllowedSet bit corresponding to s.
func Bit(s Strategy) AllowedSet {
	return AllowedSet(1) << uint(s)
}

// All contains every concrete strategy (Unset excluded).
const All = AllowedSet(0b111110)

// Allows reports whether s is a member of the set.
func (set AllowedSet) Allows(s Strategy) bool {
	return set&Bit(s) != 0
}

// Restrict narrows set to just s, used when a contract pins a parameter to
// exactly one strategy.
func Restrict(s Strategy) AllowedSet {
	return Bit(s)
}

// Strategies returns the concrete strategies present in the set, in
// ascending enum order, for deterministic diagnostic rendering.
func (set AllowedSet) Strategies() []Strategy {
	out := make([]Strategy, 0, 5)
	for s := Stack; s <= SmartPtr; s++ {
		if set.Allows(s) {
			out = append(out, s)
		}
	}
	return out
}
