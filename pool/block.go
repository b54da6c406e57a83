// File: pool/block.go
// Author: momentics <momentics@gmail.com>
//
// Block table: ground-truth record of every fixed-size unit in the pool.
// All mutation happens under the owning pool's lock.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-devmem/api"
)

// block is the atomic unit of the pool. A nil data slice marks a unit
// whose pinning failed at construction; such units are permanently
// excluded from allocation.
type block struct {
	data      []byte
	devAddr   uintptr
	allocated bool
	owner     api.Owner
}

// present reports whether the unit was successfully reserved and pinned.
func (b *block) present() bool { return b.data != nil }

// blockTable holds per-block state and run lookups. Blocks are identified
// by index; indices are never reassigned.
type blockTable struct {
	blocks    []block
	blockSize int
}

func newBlockTable(numBlocks, blockSize int) *blockTable {
	return &blockTable{
		blocks:    make([]block, numBlocks),
		blockSize: blockSize,
	}
}

func (t *blockTable) len() int { return len(t.blocks) }

// blockAt returns the block at index i. Out-of-range access is a
// programming error and panics via the slice bounds check.
func (t *blockTable) blockAt(i int) *block { return &t.blocks[i] }

// findByAddress resolves a device address back to its block index via
// linear scan. Used to cross-check a handle before releasing its run.
func (t *blockTable) findByAddress(addr uintptr) (int, bool) {
	for i := range t.blocks {
		if t.blocks[i].present() && t.blocks[i].devAddr == addr {
			return i, true
		}
	}
	return 0, false
}

// runFree reports whether count consecutive blocks starting at start are
// all present and unallocated.
func (t *blockTable) runFree(start, count int) bool {
	for j := start; j < start+count; j++ {
		if !t.blocks[j].present() || t.blocks[j].allocated {
			return false
		}
	}
	return true
}

// runAllocated reports whether count consecutive blocks starting at start
// are all claimed. Used to validate a handle on free.
func (t *blockTable) runAllocated(start, count int) bool {
	if start < 0 || count <= 0 || start+count > len(t.blocks) {
		return false
	}
	for j := start; j < start+count; j++ {
		if !t.blocks[j].allocated {
			return false
		}
	}
	return true
}

// claim marks the run allocated and tags every block with owner.
func (t *blockTable) claim(start, count int, owner api.Owner) {
	for j := start; j < start+count; j++ {
		t.blocks[j].allocated = true
		t.blocks[j].owner = owner
	}
}

// release clears allocation state and resets the owner sentinel in the
// same critical section.
func (t *blockTable) release(start, count int) {
	for j := start; j < start+count; j++ {
		t.blocks[j].allocated = false
		t.blocks[j].owner = api.OwnerNone
	}
}

// deviceAddress returns the stable address a device would use to reference
// the first byte of b. The backing arena is pinned, so the address cannot
// move for the pool's lifetime.
func deviceAddress(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
