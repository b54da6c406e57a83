// Package pool
// Author: momentics <momentics@gmail.com>
//
// Pinned memory pool for device-accessible IO in hioload-devmem.
// Implements a pre-reserved, page-locked arena of fixed-size blocks with
// first-fit contiguous-run allocation, per-block ownership tracking, and
// crash-safe teardown. Platform-specific reservation and pinning live in
// separate files behind build tags.
// See block.go, pool.go, reserver.go for implementation details.
package pool
