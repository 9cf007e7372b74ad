package bir

import (
	"bract/internal/contract"
	"bract/internal/region"
	"bract/internal/source"
	"bract/internal/symbols"
	"bract/internal/types"
)

// Func is a function lowered into BIR.
type Func struct {
	ID   FuncID
	Sym  symbols.SymbolID
	Name string
	Span source.Span

	Params []ValueID
	Result types.TypeID

	Values []Value // indexed by ValueID - 1; Values[0] corresponds to ValueID 1
	Blocks []Block
	Entry  BlockID

	Regions  *region.Table
	Contract *contract.Spec
}

// ValueOf returns the Value for id, or the zero Value if id is out of
// range.
func (f *Func) ValueOf(id ValueID) Value {
	if !id.IsValid() || int(id) > len(f.Values) {
		return Value{}
	}
	return f.Values[id-1]
}

// Block returns the block with the given ID, or nil.
func (f *Func) Block(id BlockID) *Block {
	if !id.IsValid() || int(id) > len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id-1]
}
