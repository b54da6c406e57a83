// File: device/device.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Device owns the staging buffer and the copy-in/copy-out path. The
// staging region comes from the pinned pool; its lock is scoped to this
// component and is never the pool lock, so transfers cannot stall
// allocation.

package device

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/momentics/hioload-devmem/api"
)

// Supported PCI vendors, probed in order.
const (
	VendorNVIDIA uint16 = 0x10de
	VendorAMD    uint16 = 0x1002
)

// DefaultStagingSize is the staging buffer size when none is configured.
const DefaultStagingSize = 64 * 1024 * 1024 // 64 MiB

// PCIDevice describes a discovered accelerator.
type PCIDevice struct {
	Vendor  uint16
	Device  uint16
	Address string // bus address, e.g. 0000:01:00.0
}

// Prober discovers a compatible accelerator. Returns api.ErrNoDevice when
// none is installed.
type Prober interface {
	Probe() (PCIDevice, error)
}

// Config holds device construction parameters.
type Config struct {
	StagingSize int           // pinned staging region size; DefaultStagingSize if 0
	Prober      Prober        // discovery backend; platform default if nil
	Telemetry   api.Telemetry // optional passive collector
}

// Device implements api.Transferer on top of a pool-backed staging region.
type Device struct {
	mu      sync.Mutex
	alloc   api.Allocator
	staging api.Region
	info    PCIDevice
	present bool
	tel     api.Telemetry

	transfersTo   atomic.Int64
	transfersFrom atomic.Int64
	bytesTo       atomic.Int64
	bytesFrom     atomic.Int64
	launches      atomic.Int64
}

var _ api.Transferer = (*Device)(nil)

// New probes for an accelerator and reserves the staging region from
// alloc. A missing device is not an error: the returned Device loads
// degraded and every transfer reports api.ErrNoDevice.
func New(alloc api.Allocator, cfg Config) (*Device, error) {
	if cfg.StagingSize == 0 {
		cfg.StagingSize = DefaultStagingSize
	}
	if cfg.Prober == nil {
		cfg.Prober = DefaultProber()
	}

	d := &Device{alloc: alloc, tel: cfg.Telemetry}

	info, err := cfg.Prober.Probe()
	if err != nil {
		log.Printf("[device] no accelerator available, continuing without device: %v", err)
		return d, nil
	}
	d.info = info
	d.present = true

	staging, err := alloc.Alloc(cfg.StagingSize, api.Owner(os.Getpid()))
	if err != nil {
		return nil, errors.WithMessagef(err, "staging buffer of %d bytes", cfg.StagingSize)
	}
	d.staging = staging

	log.Printf("[device] initialized %04x:%04x at %s (staging %d MB)",
		info.Vendor, info.Device, info.Address, cfg.StagingSize/1024/1024)
	return d, nil
}

// Present reports whether an accelerator was found at init.
func (d *Device) Present() bool { return d.present }

// Info returns the discovered PCI identity; zero value when degraded.
func (d *Device) Info() PCIDevice { return d.info }

// CopyToDevice stages src for the device.
func (d *Device) CopyToDevice(src []byte) error {
	if !d.present {
		return api.ErrNoDevice
	}
	if len(src) == 0 {
		return errors.WithMessage(api.ErrInvalidSize, "empty transfer")
	}
	if len(src) > d.staging.Size() {
		return errors.WithMessagef(api.ErrTransferTooLarge,
			"%d > %d", len(src), d.staging.Size())
	}

	began := time.Now()
	d.mu.Lock()
	copy(d.staging.Bytes(), src)
	d.mu.Unlock()

	d.transfersTo.Add(1)
	d.bytesTo.Add(int64(len(src)))
	if d.tel != nil {
		d.tel.TransferObserved(api.ToDevice, len(src), time.Since(began))
	}
	return nil
}

// CopyFromDevice fills dst from the staging region.
func (d *Device) CopyFromDevice(dst []byte) error {
	if !d.present {
		return api.ErrNoDevice
	}
	if len(dst) == 0 {
		return errors.WithMessage(api.ErrInvalidSize, "empty transfer")
	}
	if len(dst) > d.staging.Size() {
		return errors.WithMessagef(api.ErrTransferTooLarge,
			"%d > %d", len(dst), d.staging.Size())
	}

	began := time.Now()
	d.mu.Lock()
	copy(dst, d.staging.Bytes())
	d.mu.Unlock()

	d.transfersFrom.Add(1)
	d.bytesFrom.Add(int64(len(dst)))
	if d.tel != nil {
		d.tel.TransferObserved(api.FromDevice, len(dst), time.Since(began))
	}
	return nil
}

// LaunchKernel dispatches a compute kernel on the device.
// Command buffer setup and workgroup dispatch go through the vendor
// runtime; this layer only accounts for the launch.
func (d *Device) LaunchKernel() error {
	if !d.present {
		return api.ErrNoDevice
	}
	d.launches.Add(1)
	if d.tel != nil {
		d.tel.KernelLaunchObserved()
	}
	return nil
}

// Stats returns a snapshot of the transfer counters.
func (d *Device) Stats() api.TransferStats {
	return api.TransferStats{
		TransfersToDevice:   d.transfersTo.Load(),
		TransfersFromDevice: d.transfersFrom.Load(),
		BytesToDevice:       d.bytesTo.Load(),
		BytesFromDevice:     d.bytesFrom.Load(),
		KernelLaunches:      d.launches.Load(),
	}
}

// Close returns the staging region to the pool. Safe to call on a
// degraded device.
func (d *Device) Close() error {
	d.mu.Lock()
	staging := d.staging
	d.staging = nil
	d.present = false
	d.mu.Unlock()

	if staging == nil {
		return nil
	}
	return d.alloc.Free(staging)
}
