package bir

import (
	"strings"

	"bract/internal/strategy"
	"bract/internal/types"
)

// resolveStrategy recovers the strategy chosen for a type occurrence: first
// consulting the side-table sema populated while checking strategy
// annotations and wrapper-constructor calls, then falling back to a
// name-prefix heuristic against the nominal type's declared name,
// mirroring how sema's magic_ownership.go recognizes "&"/"&mut "/"own "
// prefixes on symbols.TypeKey instead of a dedicated AST node. Returns
// strategy.Stack, the default, when nothing more specific is recorded.
func resolveStrategy(interner *types.Interner, id types.TypeID) (strategy.Strategy, string) {
	if interner == nil || id == types.NoTypeID {
		return strategy.Stack, ""
	}
	if attrs, ok := interner.TypeStrategy(id); ok {
		return attrs.Strategy, attrs.Via
	}
	name := nominalName(interner, id)
	if name == "" {
		return strategy.Stack, ""
	}
	switch {
	case strings.HasPrefix(name, "LinearPtr"):
		return strategy.Linear, name
	case strings.HasPrefix(name, "RegionPtr"):
		return strategy.Region, name
	case strings.HasPrefix(name, "ManualPtr"):
		return strategy.Manual, name
	case strings.HasPrefix(name, "SmartPtr"), strings.HasPrefix(name, "Shared"):
		return strategy.SmartPtr, name
	default:
		return strategy.Stack, ""
	}
}

func nominalName(interner *types.Interner, id types.TypeID) string {
	if info, ok := interner.StructInfo(id); ok && info != nil {
		if s, ok := interner.Strings.Lookup(info.Name); ok {
			return s
		}
	}
	if info, ok := interner.AliasInfo(id); ok && info != nil {
		if s, ok := interner.Strings.Lookup(info.Name); ok {
			return s
		}
	}
	return ""
}
