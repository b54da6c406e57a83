//go:build linux
// +build linux

// File: pool/reserve_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux reservation backend: anonymous private mmap arena with per-unit
// mlock. Locked pages cannot be relocated or swapped out, so their
// addresses are stable for device use. Requires CAP_IPC_LOCK or an
// adequate RLIMIT_MEMLOCK; callers without either should construct pools
// with HeapReserver.

package pool

import (
	"golang.org/x/sys/unix"
)

const pageSize = 4096

type mmapReserver struct{}

// DefaultReserver returns the mmap/mlock backend on Linux.
func DefaultReserver() Reserver { return mmapReserver{} }

func (mmapReserver) Reserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
}

func (mmapReserver) Pin(unit []byte) error {
	if err := unix.Mlock(unit); err != nil {
		return err
	}
	// Force physical RAM commitment.
	for i := 0; i < len(unit); i += pageSize {
		unit[i] = 0
	}
	return nil
}

func (mmapReserver) Unpin(unit []byte) error {
	return unix.Munlock(unit)
}

func (mmapReserver) Release(arena []byte) error {
	return unix.Munmap(arena)
}
