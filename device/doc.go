// Package device
// Author: momentics <momentics@gmail.com>
//
// Accelerator transfer layer for hioload-devmem. Stages host data through
// a pinned region allocated from the pool and moves it to/from a PCI
// accelerator. Loads degraded when no compatible device is found: the
// status surface stays available and transfers report api.ErrNoDevice.
// See device.go, engine.go, probe_linux.go for implementation details.
package device
