// File: api/device.go
// Package api defines the accelerator transfer contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Transferer moves data between host memory and an accelerator through a
// pinned staging region. Implementations guard the staging region with
// their own lock; the pool lock is never held across a transfer.
type Transferer interface {
	// CopyToDevice stages src for the device. Returns ErrTransferTooLarge
	// when src exceeds the staging region.
	CopyToDevice(src []byte) error

	// CopyFromDevice fills dst from the staging region.
	CopyFromDevice(dst []byte) error

	// LaunchKernel dispatches a compute kernel on the device.
	LaunchKernel() error

	// Present reports whether an accelerator was found at init.
	Present() bool

	// Stats returns a snapshot of transfer counters.
	Stats() TransferStats
}

// TransferStats mirrors the device-side counters exposed on the status
// surface.
type TransferStats struct {
	TransfersToDevice   int64
	TransfersFromDevice int64
	BytesToDevice       int64
	BytesFromDevice     int64
	KernelLaunches      int64
}

// TransferDirection tags a transfer for telemetry.
type TransferDirection int

const (
	ToDevice TransferDirection = iota
	FromDevice
)

func (d TransferDirection) String() string {
	if d == ToDevice {
		return "to_device"
	}
	return "from_device"
}
