// File: telemetry/nop.go
// Author: momentics <momentics@gmail.com>

package telemetry

import (
	"time"

	"github.com/momentics/hioload-devmem/api"
)

type nop struct{}

func (nop) AllocObserved(int, bool, time.Duration)                     {}
func (nop) FreeObserved(int)                                           {}
func (nop) TransferObserved(api.TransferDirection, int, time.Duration) {}
func (nop) KernelLaunchObserved()                                      {}

// Nop returns a collector that discards every event.
func Nop() api.Telemetry { return nop{} }
