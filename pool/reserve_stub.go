//go:build !linux && !windows
// +build !linux,!windows

// File: pool/reserve_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback reservation backend for platforms without page-locking support.

package pool

// DefaultReserver falls back to heap-backed memory with no-op pinning.
func DefaultReserver() Reserver { return heapReserver{} }
