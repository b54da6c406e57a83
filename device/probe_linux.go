//go:build linux
// +build linux

// File: device/probe_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux accelerator discovery via sysfs. Scans /sys/bus/pci/devices for
// the first NVIDIA function, then AMD.

package device

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/momentics/hioload-devmem/api"
)

type sysfsProber struct {
	root string
}

// DefaultProber scans the PCI sysfs tree on Linux.
func DefaultProber() Prober {
	return &sysfsProber{root: "/sys/bus/pci/devices"}
}

func (p *sysfsProber) Probe() (PCIDevice, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return PCIDevice{}, api.ErrNoDevice
	}

	for _, vendor := range []uint16{VendorNVIDIA, VendorAMD} {
		for _, e := range entries {
			dir := filepath.Join(p.root, e.Name())
			v, err := readHex16(filepath.Join(dir, "vendor"))
			if err != nil || v != vendor {
				continue
			}
			dev, err := readHex16(filepath.Join(dir, "device"))
			if err != nil {
				continue
			}
			return PCIDevice{Vendor: vendor, Device: dev, Address: e.Name()}, nil
		}
	}
	return PCIDevice{}, api.ErrNoDevice
}

// readHex16 parses a sysfs id file of the form "0x10de\n".
func readHex16(path string) (uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}
