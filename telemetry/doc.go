// Package telemetry
// Author: momentics <momentics@gmail.com>
//
// Passive metrics collection for hioload-devmem: allocation and transfer
// latency histograms plus launch/byte counters, exported through
// Prometheus. The collector only ever receives events; it never calls
// back into the allocator or device layers.
package telemetry
