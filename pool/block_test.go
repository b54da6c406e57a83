// File: pool/block_test.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"testing"

	"github.com/momentics/hioload-devmem/api"
)

func newTestTable(n int) *blockTable {
	t := newBlockTable(n, 64)
	backing := make([]byte, n*64)
	for i := 0; i < n; i++ {
		unit := backing[i*64 : (i+1)*64]
		t.blocks[i].data = unit
		t.blocks[i].devAddr = deviceAddress(unit)
	}
	return t
}

func TestTableFindByAddress(t *testing.T) {
	tbl := newTestTable(4)

	idx, ok := tbl.findByAddress(tbl.blockAt(2).devAddr)
	if !ok || idx != 2 {
		t.Fatalf("findByAddress = (%d, %v), want (2, true)", idx, ok)
	}
	if _, ok := tbl.findByAddress(0xdeadbeef); ok {
		t.Fatal("unknown address must not resolve")
	}
}

func TestTableRunStateTransitions(t *testing.T) {
	tbl := newTestTable(6)

	if !tbl.runFree(0, 6) {
		t.Fatal("fresh table must be fully free")
	}
	tbl.claim(2, 3, api.Owner(5))
	if tbl.runFree(1, 3) {
		t.Fatal("run overlapping a claim must not be free")
	}
	if !tbl.runAllocated(2, 3) {
		t.Fatal("claimed run must report allocated")
	}
	for j := 2; j < 5; j++ {
		if tbl.blockAt(j).owner != api.Owner(5) {
			t.Fatalf("block %d owner = %d, want 5", j, tbl.blockAt(j).owner)
		}
	}

	tbl.release(2, 3)
	if !tbl.runFree(0, 6) {
		t.Fatal("released table must be fully free")
	}
	for j := 2; j < 5; j++ {
		if tbl.blockAt(j).owner != api.OwnerNone {
			t.Fatalf("block %d owner not reset", j)
		}
	}
}

func TestTableMissingBlockNeverFree(t *testing.T) {
	tbl := newTestTable(3)
	tbl.blocks[1].data = nil

	if tbl.runFree(0, 3) {
		t.Fatal("run spanning a missing block must not be free")
	}
	if !tbl.runFree(2, 1) {
		t.Fatal("present block after the gap must be free")
	}
}
