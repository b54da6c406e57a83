//go:build windows
// +build windows

// File: pool/reserve_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows reservation backend: heap-allocated arena with per-unit
// VirtualLock. The process working set may need to be grown for large
// pools; lock failures surface as missing blocks, not construction errors.

package pool

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type virtualLockReserver struct{}

// DefaultReserver returns the VirtualLock backend on Windows.
func DefaultReserver() Reserver { return virtualLockReserver{} }

func (virtualLockReserver) Reserve(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (virtualLockReserver) Pin(unit []byte) error {
	if len(unit) == 0 {
		return nil
	}
	return windows.VirtualLock(uintptr(unsafe.Pointer(&unit[0])), uintptr(len(unit)))
}

func (virtualLockReserver) Unpin(unit []byte) error {
	if len(unit) == 0 {
		return nil
	}
	return windows.VirtualUnlock(uintptr(unsafe.Pointer(&unit[0])), uintptr(len(unit)))
}

func (virtualLockReserver) Release(arena []byte) error { return nil }
