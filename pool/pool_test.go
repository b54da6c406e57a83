// File: pool/pool_test.go
// Author: momentics <momentics@gmail.com>
//
// Allocator invariants: first-fit determinism, exclusivity, accounting
// round-trips, double-free safety, teardown safety.

package pool_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-devmem/api"
	"github.com/momentics/hioload-devmem/pool"
)

const blockSize = 4096

// countingReserver wraps the heap backend and records backend calls.
// Pin failures can be injected by unit index; New pins units in ascending
// index order.
type countingReserver struct {
	mu       sync.Mutex
	pinCalls int
	pins     int
	unpins   int
	releases int
	failPin  map[int]bool
}

func (r *countingReserver) Reserve(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (r *countingReserver) Pin(unit []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.pinCalls
	r.pinCalls++
	if r.failPin[idx] {
		return fmt.Errorf("injected pin failure at unit %d", idx)
	}
	r.pins++
	return nil
}

func (r *countingReserver) Unpin(unit []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unpins++
	return nil
}

func (r *countingReserver) Release(arena []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	return nil
}

func newTestPool(t *testing.T, blocks int, opts ...pool.Option) *pool.Pool {
	t.Helper()
	opts = append(opts, pool.WithReserver(pool.HeapReserver()))
	p, err := pool.New(blocks*blockSize, blockSize, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func blocksOf(t *testing.T, r api.Region) (int, int) {
	t.Helper()
	h, ok := r.(*pool.Handle)
	require.True(t, ok)
	return h.Blocks()
}

func TestAllocFirstFitDeterminism(t *testing.T) {
	p := newTestPool(t, 5)

	a, err := p.Alloc(blockSize, 1)
	require.NoError(t, err)
	b, err := p.Alloc(blockSize, 1)
	require.NoError(t, err)
	c, err := p.Alloc(blockSize, 1)
	require.NoError(t, err)

	// Shape the table as [free, free, allocated, free, free].
	require.NoError(t, p.Free(a))
	require.NoError(t, p.Free(b))
	_ = c

	r, err := p.Alloc(2*blockSize, 2)
	require.NoError(t, err)
	start, count := blocksOf(t, r)
	assert.Equal(t, 0, start, "first-fit must claim the lowest-index run")
	assert.Equal(t, 2, count)
}

func TestAllocOutOfSpace(t *testing.T) {
	p := newTestPool(t, 4)

	for i := 0; i < 3; i++ {
		_, err := p.Alloc(blockSize, api.Owner(i+1))
		require.NoError(t, err)
	}

	// One free block remains: a 2-block request must fail even though
	// total free bytes would cover a single-block request.
	_, err := p.Alloc(2*blockSize, 9)
	require.ErrorIs(t, err, api.ErrOutOfSpace)
	assert.Equal(t, int64(1), p.Stats().AllocFailures)

	r, err := p.Alloc(blockSize, 9)
	require.NoError(t, err)
	start, _ := blocksOf(t, r)
	assert.Equal(t, 3, start)
}

func TestAllocRoundTrip(t *testing.T) {
	p := newTestPool(t, 8)
	before := p.AllocatedBytes()

	r, err := p.Alloc(3*blockSize, 7)
	require.NoError(t, err)
	start, count := blocksOf(t, r)
	assert.Equal(t, int64(3*blockSize), p.AllocatedBytes()-before)

	require.NoError(t, p.Free(r))
	assert.Equal(t, before, p.AllocatedBytes())

	again, err := p.Alloc(2*blockSize, 7)
	require.NoError(t, err)
	s2, c2 := blocksOf(t, again)
	assert.Equal(t, start, s2, "freed range must be eligible again")
	assert.LessOrEqual(t, c2, count)
}

func TestAccountingIsBlockGranular(t *testing.T) {
	p := newTestPool(t, 4)

	// A 100-byte request still reserves one whole block.
	r, err := p.Alloc(100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(blockSize), p.AllocatedBytes())
	assert.Equal(t, blockSize, r.Size())

	require.NoError(t, p.Free(r))
	assert.Equal(t, int64(0), p.AllocatedBytes())
}

func TestAllocInvalidSize(t *testing.T) {
	p := newTestPool(t, 4)

	for _, size := range []int{0, -1, 5 * blockSize} {
		_, err := p.Alloc(size, 1)
		assert.ErrorIs(t, err, api.ErrInvalidSize, "size %d", size)
	}
}

func TestDoubleFreeSafety(t *testing.T) {
	p := newTestPool(t, 4)

	victim, err := p.Alloc(blockSize, 1)
	require.NoError(t, err)
	r, err := p.Alloc(blockSize, 2)
	require.NoError(t, err)

	require.NoError(t, p.Free(r))
	bytes := p.AllocatedBytes()

	// Second free of the same handle must not corrupt accounting or
	// touch the still-allocated neighbor.
	require.ErrorIs(t, p.Free(r), api.ErrUnknownHandle)
	assert.Equal(t, bytes, p.AllocatedBytes())

	reused, err := p.Alloc(blockSize, 3)
	require.NoError(t, err)
	require.NoError(t, p.Free(reused))
	require.NoError(t, p.Free(victim))
}

type foreignRegion struct{}

func (foreignRegion) Bytes() []byte          { return nil }
func (foreignRegion) Size() int              { return 0 }
func (foreignRegion) DeviceAddress() uintptr { return 0 }
func (foreignRegion) Owner() api.Owner       { return api.OwnerNone }

func TestFreeUnknownRegion(t *testing.T) {
	p := newTestPool(t, 4)

	assert.ErrorIs(t, p.Free(nil), api.ErrUnknownHandle)
	assert.ErrorIs(t, p.Free(foreignRegion{}), api.ErrUnknownHandle)
	assert.Equal(t, int64(0), p.AllocatedBytes())
}

func TestOwnerTagging(t *testing.T) {
	p := newTestPool(t, 4)

	r, err := p.Alloc(blockSize, 42)
	require.NoError(t, err)
	assert.Equal(t, api.Owner(42), r.Owner())
	require.NoError(t, p.Free(r))
}

func TestMissingBlocksExcluded(t *testing.T) {
	res := &countingReserver{failPin: map[int]bool{0: true, 1: true}}
	p, err := pool.New(5*blockSize, blockSize, pool.WithReserver(res))
	require.NoError(t, err)
	defer p.Close()

	st := p.Stats()
	assert.Equal(t, 2, st.MissingBlocks)
	assert.Equal(t, int64(3*blockSize), st.PoolBytes)

	// First-fit must transparently skip the missing units.
	r, err := p.Alloc(blockSize, 1)
	require.NoError(t, err)
	start, _ := blocksOf(t, r)
	assert.Equal(t, 2, start)

	// A run longer than the present capacity cannot be found.
	_, err = p.Alloc(4*blockSize, 1)
	assert.ErrorIs(t, err, api.ErrOutOfSpace)
}

func TestConstructionFailsWhenNothingPins(t *testing.T) {
	res := &countingReserver{failPin: map[int]bool{0: true, 1: true, 2: true, 3: true}}
	_, err := pool.New(4*blockSize, blockSize, pool.WithReserver(res))
	require.ErrorIs(t, err, api.ErrReservationFailed)
	assert.Equal(t, 1, res.releases, "failed construction must release the arena")
}

func TestConstructionRejectsBadGeometry(t *testing.T) {
	_, err := pool.New(blockSize, 0, pool.WithReserver(pool.HeapReserver()))
	assert.ErrorIs(t, err, api.ErrInvalidSize)
	_, err = pool.New(blockSize/2, blockSize, pool.WithReserver(pool.HeapReserver()))
	assert.ErrorIs(t, err, api.ErrInvalidSize)
}

func TestTeardownSafety(t *testing.T) {
	res := &countingReserver{failPin: map[int]bool{3: true}}
	p, err := pool.New(8*blockSize, blockSize, pool.WithReserver(res))
	require.NoError(t, err)

	// Leak one allocation on purpose: teardown must still release
	// every reservation.
	_, err = p.Alloc(2*blockSize, 1)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 7, res.unpins, "every present unit unpinned exactly once")
	assert.Equal(t, 1, res.releases)

	// Idempotent: a second Close must not double-release.
	require.NoError(t, p.Close())
	assert.Equal(t, 7, res.unpins)
	assert.Equal(t, 1, res.releases)

	_, err = p.Alloc(blockSize, 1)
	assert.ErrorIs(t, err, api.ErrPoolClosed)
	assert.ErrorIs(t, p.Free(foreignRegion{}), api.ErrPoolClosed)
}

// TestConcurrentExclusivity fuzzes allocate/free from many goroutines and
// checks that no two outstanding regions ever overlap and that the
// capacity invariant holds at every observation point.
func TestConcurrentExclusivity(t *testing.T) {
	const (
		numBlocks  = 64
		goroutines = 8
		iterations = 400
	)
	p := newTestPool(t, numBlocks)
	poolBytes := int64(numBlocks) * blockSize

	var claimMu sync.Mutex
	claimed := make(map[int]int) // block index -> owner goroutine

	checkAndClaim := func(t *testing.T, id, start, count int) {
		claimMu.Lock()
		defer claimMu.Unlock()
		for j := start; j < start+count; j++ {
			if prev, taken := claimed[j]; taken {
				t.Errorf("block %d handed to goroutine %d while held by %d", j, id, prev)
			}
			claimed[j] = id
		}
	}
	unclaim := func(start, count int) {
		claimMu.Lock()
		defer claimMu.Unlock()
		for j := start; j < start+count; j++ {
			delete(claimed, j)
		}
	}

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(id)))
			var live []api.Region
			for i := 0; i < iterations; i++ {
				if got := p.AllocatedBytes(); got > poolBytes {
					t.Errorf("allocated %d exceeds capacity %d", got, poolBytes)
				}
				if len(live) > 0 && rng.Intn(2) == 0 {
					k := rng.Intn(len(live))
					r := live[k]
					h := r.(*pool.Handle)
					start, count := h.Blocks()
					// Unclaim first: the blocks stay ours inside the
					// pool until Free completes.
					unclaim(start, count)
					if err := p.Free(r); err != nil {
						t.Errorf("free: %v", err)
					}
					live = append(live[:k], live[k+1:]...)
					continue
				}
				size := (rng.Intn(4) + 1) * blockSize
				r, err := p.Alloc(size, api.Owner(id+1))
				if err != nil {
					continue // out of space is an expected outcome
				}
				h := r.(*pool.Handle)
				start, count := h.Blocks()
				checkAndClaim(t, id, start, count)
				live = append(live, r)
			}
			for _, r := range live {
				h := r.(*pool.Handle)
				start, count := h.Blocks()
				unclaim(start, count)
				if err := p.Free(r); err != nil {
					t.Errorf("drain free: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, int64(0), p.AllocatedBytes())
	assert.Equal(t, int64(0), p.Stats().AllocatedBlocks)
}
