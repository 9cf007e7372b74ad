package bir

import (
	"github.com/vmihailenco/msgpack/v5"

	"bract/internal/symbols"
	"bract/internal/types"
)

// wireFunc is the on-disk shape of a Func: just the IR proper. Regions and
// Contract are sema-owned side tables recomputed on a cache miss rather
// than round-tripped, the same way internal/mono's instantiation cache
// keys on (fn_id, arg_types) and lets the compiler re-derive everything
// else instead of serializing it.
type wireFunc struct {
	ID     FuncID
	Sym    uint32
	Name   string
	Params []ValueID
	Result uint32
	Values []Value
	Blocks []Block
	Entry  BlockID
}

// Encode serializes a Func's IR to msgpack, used as the cache payload keyed
// by (symbol, type args, strategy assignment) so a second compilation of
// an unchanged generic instantiation can skip straight to target-IR
// lowering.
func Encode(f *Func) ([]byte, error) {
	if f == nil {
		return nil, nil
	}
	w := wireFunc{
		ID:     f.ID,
		Sym:    uint32(f.Sym),
		Name:   f.Name,
		Params: f.Params,
		Result: uint32(f.Result),
		Values: f.Values,
		Blocks: f.Blocks,
		Entry:  f.Entry,
	}
	return msgpack.Marshal(&w)
}

// Decode restores a Func's IR from msgpack. The caller must re-attach
// Regions and Contract before using the result with anything that reads
// them (internal/contract's engine, internal/mir's region-aware lowering).
func Decode(data []byte) (*Func, error) {
	var w wireFunc
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &Func{
		ID:     w.ID,
		Sym:    symbols.SymbolID(w.Sym),
		Name:   w.Name,
		Params: w.Params,
		Result: types.TypeID(w.Result),
		Values: w.Values,
		Blocks: w.Blocks,
		Entry:  w.Entry,
	}, nil
}
