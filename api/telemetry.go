// Package api
// Author: momentics <momentics@gmail.com>
//
// Passive telemetry contract. The allocator and device layers emit plain
// counter/latency events; collectors must never call back into them.

package api

import "time"

// Telemetry receives allocator and device events as counters only.
type Telemetry interface {
	// AllocObserved records one allocation attempt: reserved bytes on
	// success, ok=false on an out-of-space response.
	AllocObserved(bytes int, ok bool, latency time.Duration)

	// FreeObserved records one successful free of bytes.
	FreeObserved(bytes int)

	// TransferObserved records one staged copy.
	TransferObserved(dir TransferDirection, bytes int, latency time.Duration)

	// KernelLaunchObserved records one compute dispatch.
	KernelLaunchObserved()
}
