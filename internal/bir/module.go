package bir

import "bract/internal/symbols"

// Module collects every function lowered to BIR for one compilation unit.
type Module struct {
	Funcs     map[FuncID]*Func
	FuncBySym map[symbols.SymbolID]FuncID
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{
		Funcs:     make(map[FuncID]*Func),
		FuncBySym: make(map[symbols.SymbolID]FuncID),
	}
}

// FuncFor returns the BIR function for a symbol, if one was lowered.
func (m *Module) FuncFor(sym symbols.SymbolID) (*Func, bool) {
	id, ok := m.FuncBySym[sym]
	if !ok {
		return nil, false
	}
	f, ok := m.Funcs[id]
	return f, ok
}
