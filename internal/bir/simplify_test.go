package bir

import "testing"

func TestSimplifyCFGCollapsesTrivialBranchChain(t *testing.T) {
	f := &Func{
		Entry: 1,
		Blocks: []Block{
			{ID: 1, Term: Terminator{Kind: TermBranch, Branch: BranchTerm{Target: 2}}},
			{ID: 2, Term: Terminator{Kind: TermBranch, Branch: BranchTerm{Target: 3}}},
			{ID: 3, Term: Terminator{Kind: TermReturn}},
		},
	}
	SimplifyCFG(f)
	if len(f.Blocks) != 1 {
		t.Fatalf("expected trivial chain to collapse to 1 block, got %d", len(f.Blocks))
	}
	if f.Blocks[0].Term.Kind != TermReturn {
		t.Fatalf("expected entry to redirect straight to the return block, got %s", f.Blocks[0].Term.Kind)
	}
}

func TestSimplifyCFGDropsUnreachableBlocks(t *testing.T) {
	f := &Func{
		Entry: 1,
		Blocks: []Block{
			{ID: 1, Term: Terminator{Kind: TermReturn}},
			{ID: 2, Term: Terminator{Kind: TermReturn}}, // unreachable
		},
	}
	SimplifyCFG(f)
	if len(f.Blocks) != 1 {
		t.Fatalf("expected unreachable block to be dropped, got %d blocks", len(f.Blocks))
	}
}
