package types //nolint:revive

import "bract/internal/strategy"

// StrategyAttrs records the memory strategy chosen for a type occurrence,
// recorded the same way TypeLayoutAttrs records @align/@packed: as a
// side-table keyed by TypeID rather than a new field on Type itself, so a
// given shape can carry different strategies at different occurrences
// (a T behind a Region arena versus the same T behind a SmartPtr) without
// the interner minting a second distinct TypeID for what is structurally
// the same shape.
type StrategyAttrs struct {
	Strategy strategy.Strategy
	Via      string // constructor/annotation spelling that selected it, for diagnostics
}

// TypeStrategy returns the recorded strategy for id, if sema has computed one.
func (in *Interner) TypeStrategy(id TypeID) (StrategyAttrs, bool) {
	if in == nil || id == NoTypeID || in.strategyAttrs == nil {
		return StrategyAttrs{}, false
	}
	attrs, ok := in.strategyAttrs[id]
	return attrs, ok
}

// SetTypeStrategy records the strategy chosen for a type occurrence.
func (in *Interner) SetTypeStrategy(id TypeID, attrs StrategyAttrs) {
	if in == nil || id == NoTypeID {
		return
	}
	if attrs.Strategy == strategy.Unset {
		if in.strategyAttrs != nil {
			delete(in.strategyAttrs, id)
		}
		return
	}
	if in.strategyAttrs == nil {
		in.strategyAttrs = make(map[TypeID]StrategyAttrs, 64)
	}
	in.strategyAttrs[id] = attrs
}
