// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control surface for hioload-devmem: configuration snapshots,
// metrics registry, debug probes, and a read-only plain-text status
// report in /proc style. No mutation of pool or
// device state is possible through this package; it consumes snapshots
// only.
package control
