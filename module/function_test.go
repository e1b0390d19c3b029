package module

import "testing"

func TestBasicBlockAddSuccEdgeSymmetry(t *testing.T) {
	a := &Atom{Kind: TextAtomKind, Begin: 0x1000, End: 0x1000}
	b := &Atom{Kind: TextAtomKind, Begin: 0x2000, End: 0x2000}
	blockA := NewBasicBlock(a)
	blockB := NewBasicBlock(b)

	blockA.AddSucc(blockB)

	if blockA.Succs[blockB.Entry()] != blockB {
		t.Errorf("AddSucc did not record blockB as a successor of blockA")
	}
	if blockB.Preds[blockA.Entry()] != blockA {
		t.Errorf("AddSucc did not record blockA as a predecessor of blockB")
	}
}

func TestFunctionSortedBlocks(t *testing.T) {
	f := NewFunction(0x2000)
	f.Blocks[0x3000] = NewBasicBlock(&Atom{Begin: 0x3000, End: 0x3000})
	f.Blocks[0x1000] = NewBasicBlock(&Atom{Begin: 0x1000, End: 0x1000})
	f.Blocks[0x2000] = NewBasicBlock(&Atom{Begin: 0x2000, End: 0x2000})

	blocks := f.SortedBlocks()
	want := []uint64{0x1000, 0x2000, 0x3000}
	if len(blocks) != len(want) {
		t.Fatalf("SortedBlocks() returned %d blocks, want %d", len(blocks), len(want))
	}
	for i, addr := range want {
		if uint64(blocks[i].Entry()) != addr {
			t.Errorf("SortedBlocks()[%d].Entry() = %v, want 0x%X", i, blocks[i].Entry(), addr)
		}
	}
}
