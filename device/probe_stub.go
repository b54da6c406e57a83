//go:build !linux
// +build !linux

// File: device/probe_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback discovery for platforms without PCI sysfs. Always degraded.

package device

import "github.com/momentics/hioload-devmem/api"

type stubProber struct{}

// DefaultProber reports no accelerator on unsupported platforms.
func DefaultProber() Prober { return stubProber{} }

func (stubProber) Probe() (PCIDevice, error) {
	return PCIDevice{}, api.ErrNoDevice
}
