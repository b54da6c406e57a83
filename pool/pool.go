// File: pool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool: fixed-size-block pinned memory allocator with first-fit
// contiguous-run search. One mutex serializes the search-and-claim in
// Alloc and the clear-and-account step in Free; accounting counters are
// additionally atomic so status surfaces read them without the lock.

package pool

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/momentics/hioload-devmem/api"
)

// Pool lifecycle states.
const (
	stateUninitialized int32 = iota
	stateInitializing
	stateReady
	stateShuttingDown
	stateDestroyed
)

// Pool is a pre-reserved, page-locked arena carved into fixed-size blocks.
// Multiple pools may coexist; there is no process-wide instance.
type Pool struct {
	mu    sync.Mutex
	table *blockTable
	arena []byte

	blockSize int
	numBlocks int
	missing   int
	numaNode  int

	reserver Reserver
	tel      api.Telemetry

	state           atomic.Int32
	allocatedBytes  atomic.Int64
	allocatedBlocks atomic.Int64
	allocFailures   atomic.Int64
}

var _ api.Allocator = (*Pool)(nil)

// Option customizes pool construction.
type Option func(*Pool)

// WithReserver overrides the platform reservation backend. Tests and
// unprivileged environments use HeapReserver.
func WithReserver(r Reserver) Option {
	return func(p *Pool) { p.reserver = r }
}

// WithTelemetry attaches a passive event collector.
func WithTelemetry(t api.Telemetry) Option {
	return func(p *Pool) { p.tel = t }
}

// WithNUMANode records the preferred NUMA node for this pool.
// Node -1 means "system default".
func WithNUMANode(node int) Option {
	return func(p *Pool) { p.numaNode = node }
}

// New reserves poolSize bytes as poolSize/blockSize fixed-size units and
// pins each one individually. A unit that fails to pin is logged and
// permanently excluded; construction fails with api.ErrReservationFailed
// only when no unit at all could be reserved.
func New(poolSize, blockSize int, opts ...Option) (*Pool, error) {
	if blockSize <= 0 || poolSize < blockSize {
		return nil, errors.WithMessagef(api.ErrInvalidSize,
			"pool %d bytes, block %d bytes", poolSize, blockSize)
	}

	p := &Pool{
		blockSize: blockSize,
		numBlocks: poolSize / blockSize,
		numaNode:  -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reserver == nil {
		p.reserver = DefaultReserver()
	}
	p.state.Store(stateInitializing)

	arena, err := p.reserver.Reserve(p.numBlocks * blockSize)
	if err != nil {
		return nil, errors.WithMessagef(api.ErrReservationFailed,
			"arena of %d blocks: %v", p.numBlocks, err)
	}
	p.arena = arena
	p.table = newBlockTable(p.numBlocks, blockSize)

	for i := 0; i < p.numBlocks; i++ {
		unit := arena[i*blockSize : (i+1)*blockSize : (i+1)*blockSize]
		if err := p.reserver.Pin(unit); err != nil {
			log.Printf("[pool] failed to pin block %d: %v", i, err)
			p.missing++
			continue
		}
		blk := p.table.blockAt(i)
		blk.data = unit
		blk.devAddr = deviceAddress(unit)
	}

	if p.missing == p.numBlocks {
		_ = p.reserver.Release(arena)
		p.arena = nil
		p.state.Store(stateDestroyed)
		return nil, errors.WithMessagef(api.ErrReservationFailed,
			"all %d blocks failed to pin", p.numBlocks)
	}

	p.state.Store(stateReady)
	log.Printf("[pool] initialized %d blocks of %d bytes (%d missing, node %d)",
		p.numBlocks, blockSize, p.missing, p.numaNode)
	return p, nil
}

// Alloc reserves a contiguous run of ceil(size/blockSize) blocks for owner
// using first-fit by ascending index. The returned region is size rounded
// up to whole blocks of contiguous pinned memory, exclusively owned by
// owner until freed. Returns api.ErrOutOfSpace when no run of the required
// length is free; callers must treat that as an expected outcome.
func (p *Pool) Alloc(size int, owner api.Owner) (api.Region, error) {
	if p.state.Load() != stateReady {
		return nil, api.ErrPoolClosed
	}
	if size <= 0 || size > p.numBlocks*p.blockSize {
		return nil, errors.WithMessagef(api.ErrInvalidSize, "%d bytes", size)
	}

	need := (size + p.blockSize - 1) / p.blockSize
	began := time.Now()

	var h *Handle
	p.mu.Lock()
	for i := 0; i+need <= p.table.len(); i++ {
		if !p.table.runFree(i, need) {
			continue
		}
		p.table.claim(i, need, owner)
		reserved := need * p.blockSize
		p.allocatedBytes.Add(int64(reserved))
		p.allocatedBlocks.Add(int64(need))
		h = &Handle{
			data:  p.arena[i*p.blockSize : i*p.blockSize+reserved : i*p.blockSize+reserved],
			start: i,
			count: need,
			owner: owner,
		}
		break
	}
	p.mu.Unlock()

	if h == nil {
		p.allocFailures.Add(1)
		if p.tel != nil {
			p.tel.AllocObserved(need*p.blockSize, false, time.Since(began))
		}
		log.Printf("[pool] failed to allocate %d bytes (%d blocks) for owner %d",
			size, need, owner)
		return nil, api.ErrOutOfSpace
	}
	if p.tel != nil {
		p.tel.AllocObserved(h.Size(), true, time.Since(began))
	}
	return h, nil
}

// Free returns a region to the pool, clearing allocation state and owner
// tags on every block of the run. Freeing an unknown, foreign, or already
// freed region is reported as api.ErrUnknownHandle and leaves the table
// and accounting untouched. Memory contents are not zeroed.
func (p *Pool) Free(r api.Region) error {
	if p.state.Load() != stateReady {
		return api.ErrPoolClosed
	}
	h, ok := r.(*Handle)
	if !ok || h == nil {
		return api.ErrUnknownHandle
	}
	if h.released.Swap(true) {
		log.Printf("[pool] double free of run [%d,%d)", h.start, h.start+h.count)
		return api.ErrUnknownHandle
	}

	p.mu.Lock()
	if !p.table.runAllocated(h.start, h.count) {
		p.mu.Unlock()
		log.Printf("[pool] free of stale run [%d,%d)", h.start, h.start+h.count)
		return api.ErrUnknownHandle
	}
	if idx, found := p.table.findByAddress(h.DeviceAddress()); !found || idx != h.start {
		p.mu.Unlock()
		log.Printf("[pool] free of foreign region at %#x", h.DeviceAddress())
		return api.ErrUnknownHandle
	}
	p.table.release(h.start, h.count)
	p.allocatedBytes.Add(int64(-h.count * p.blockSize))
	p.allocatedBlocks.Add(int64(-h.count))
	p.mu.Unlock()

	if p.tel != nil {
		p.tel.FreeObserved(h.count * p.blockSize)
	}
	return nil
}

// AllocatedBytes is a lock-free read of the running reserved-byte total.
// Readers tolerate transient staleness against concurrent Alloc/Free.
func (p *Pool) AllocatedBytes() int64 { return p.allocatedBytes.Load() }

// BlockSize returns the pool-wide allocation granularity.
func (p *Pool) BlockSize() int { return p.blockSize }

// NUMANode returns the node this pool prefers.
func (p *Pool) NUMANode() int { return p.numaNode }

// Stats returns a read-only accounting snapshot for status surfaces.
func (p *Pool) Stats() api.PoolStats {
	return api.PoolStats{
		PoolBytes:       int64(p.numBlocks-p.missing) * int64(p.blockSize),
		BlockSize:       p.blockSize,
		TotalBlocks:     p.numBlocks,
		MissingBlocks:   p.missing,
		AllocatedBlocks: p.allocatedBlocks.Load(),
		AllocatedBytes:  p.allocatedBytes.Load(),
		AllocFailures:   p.allocFailures.Load(),
	}
}

// Close unpins every present unit and releases the arena. It runs exactly
// once even when allocations are still outstanding: logical ownership
// metadata is discarded, the underlying reservation is never leaked or
// double-released. Subsequent Alloc/Free calls fail with api.ErrPoolClosed.
func (p *Pool) Close() error {
	if !p.state.CompareAndSwap(stateReady, stateShuttingDown) {
		return nil
	}

	p.mu.Lock()
	outstanding := p.allocatedBlocks.Load()
	for i := 0; i < p.table.len(); i++ {
		blk := p.table.blockAt(i)
		if !blk.present() {
			continue
		}
		if err := p.reserver.Unpin(blk.data); err != nil {
			log.Printf("[pool] failed to unpin block %d: %v", i, err)
		}
		blk.data = nil
		blk.devAddr = 0
		blk.allocated = false
		blk.owner = api.OwnerNone
	}
	arena := p.arena
	p.arena = nil
	p.allocatedBytes.Store(0)
	p.allocatedBlocks.Store(0)
	p.mu.Unlock()

	var err error
	if arena != nil {
		err = p.reserver.Release(arena)
	}
	p.state.Store(stateDestroyed)
	if outstanding > 0 {
		log.Printf("[pool] destroyed with %d blocks still allocated", outstanding)
	}
	return errors.WithMessage(err, "releasing arena")
}

// Shutdown implements api.GracefulShutdown.
func (p *Pool) Shutdown() error { return p.Close() }
