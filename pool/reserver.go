// File: pool/reserver.go
// Author: momentics <momentics@gmail.com>
//
// Reservation backend abstraction. The pool reserves one arena and pins it
// unit by unit; concrete backends are platform-specific and selected via
// build tags, mirroring the buffer factory injection used across hioload.

package pool

// Reserver reserves the backing arena for a pool and pins individual
// fixed-size units inside it.
type Reserver interface {
	// Reserve maps an arena of exactly size bytes.
	Reserve(size int) ([]byte, error)

	// Pin locks one unit of the arena into physical memory so a device
	// can address it by a stable location.
	Pin(unit []byte) error

	// Unpin releases the lock on one unit.
	Unpin(unit []byte) error

	// Release unmaps the whole arena.
	Release(arena []byte) error
}

// heapReserver backs the pool with ordinary Go heap memory and treats
// pinning as a no-op. Used on platforms without page-locking support and
// in tests or unprivileged environments.
type heapReserver struct{}

func (heapReserver) Reserve(size int) ([]byte, error) { return make([]byte, size), nil }
func (heapReserver) Pin(unit []byte) error            { return nil }
func (heapReserver) Unpin(unit []byte) error          { return nil }
func (heapReserver) Release(arena []byte) error       { return nil }

// HeapReserver returns a heap-backed Reserver with no-op pinning.
func HeapReserver() Reserver { return heapReserver{} }
