// Package api
// Author: momentics <momentics@gmail.com>
//
// Pinned, device-addressable memory contracts for high-performance
// accelerator IO.
//
// Regions are carved out of a pre-reserved, page-locked pool. All regions
// are physically resident for their whole lifetime so an external device
// can reference them by a stable address.

package api

// Owner identifies the requester currently holding a region. It is
// bookkeeping metadata only; the allocator never acts on it.
type Owner int64

// OwnerNone is the unowned sentinel stored on every free block.
const OwnerNone Owner = 0

// Region is an opaque caller-held reference to an allocated run of
// pinned blocks. It is used only as input to Free; callers must not
// retain the backing bytes past Free.
type Region interface {
	// Bytes returns the writable view of the pinned memory.
	Bytes() []byte

	// Size returns the reserved length in bytes (request rounded up
	// to whole blocks).
	Size() int

	// DeviceAddress returns the stable address a device would use to
	// reference the first byte of the region.
	DeviceAddress() uintptr

	// Owner returns the requester the region is attributed to.
	Owner() Owner
}

// Allocator hands out contiguous runs of fixed-size pinned blocks.
type Allocator interface {
	// Alloc reserves at least size bytes of contiguous pinned memory
	// for owner. Returns ErrOutOfSpace when no sufficient run is free.
	Alloc(size int, owner Owner) (Region, error)

	// Free returns a region to the pool. Freeing an unknown or already
	// freed region is reported as ErrUnknownHandle and changes nothing.
	Free(r Region) error

	// AllocatedBytes is a lock-free read of the running total of
	// reserved bytes. May be transiently stale against concurrent
	// Alloc/Free.
	AllocatedBytes() int64

	// Stats exposes resource/accounting metrics for observability.
	Stats() PoolStats

	// Close unpins and releases the whole pool. The allocator rejects
	// all calls after Close begins.
	Close() error
}

// PoolStats aggregates pool accounting for status surfaces.
// All fields are snapshot values; no mutation is possible through them.
type PoolStats struct {
	PoolBytes       int64 // total reserved capacity, missing blocks excluded
	BlockSize       int   // allocation granularity
	TotalBlocks     int   // blocks reserved at construction
	MissingBlocks   int   // blocks permanently excluded by pin failure
	AllocatedBlocks int64 // blocks currently claimed
	AllocatedBytes  int64 // block-granular reserved bytes currently claimed
	AllocFailures   int64 // out-of-space responses since construction
}
