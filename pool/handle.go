// File: pool/handle.go
// Author: momentics <momentics@gmail.com>
//
// Handle: caller-held reference to an allocated run of blocks. Carries the
// run's start index and length so Free never has to re-derive them from
// the address.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-devmem/api"
)

// Handle references a contiguous run of pinned blocks. It implements
// api.Region and is valid until passed to Pool.Free.
type Handle struct {
	data     []byte
	start    int
	count    int
	owner    api.Owner
	released atomic.Bool
}

var _ api.Region = (*Handle)(nil)

// Bytes returns the writable pinned memory. Contents are not zeroed on
// allocation; callers must not assume a cleared buffer.
func (h *Handle) Bytes() []byte { return h.data }

// Size returns the reserved length in bytes, rounded up to whole blocks.
func (h *Handle) Size() int { return len(h.data) }

// DeviceAddress returns the device-visible address of the first block.
func (h *Handle) DeviceAddress() uintptr { return deviceAddress(h.data) }

// Owner returns the requester this run is attributed to.
func (h *Handle) Owner() api.Owner { return h.owner }

// Blocks returns the run's start index and block count.
func (h *Handle) Blocks() (start, count int) { return h.start, h.count }
