// control/status.go
// Author: momentics <momentics@gmail.com>
//
// Read-only status report for operational tooling, modeled on the
// /proc-style text surfaces this layer replaces. All inputs are
// snapshots; rendering never takes the allocation lock.

package control

import (
	"fmt"
	"io"

	"github.com/momentics/hioload-devmem/api"
	"github.com/momentics/hioload-devmem/sched"
)

// Status aggregates snapshots from every subsystem.
type Status struct {
	Pool api.PoolStats

	DevicePresent bool
	DeviceName    string // vendor:device @ bus address, empty when degraded
	Device        api.TransferStats

	Utilization     int
	DeviceAvailable bool
	Tasks           []sched.TaskInfo
}

// Render writes the full plain-text report to w.
func Render(w io.Writer, st Status) error {
	if err := renderPool(w, st.Pool); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := renderDevice(w, st); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return renderSched(w, st)
}

func renderPool(w io.Writer, st api.PoolStats) error {
	_, err := fmt.Fprintf(w,
		"Pinned Memory Pool\n"+
			"==================\n"+
			"Total Pool Size: %d MB\n"+
			"Block Size: %d KB\n"+
			"Total Blocks: %d\n"+
			"Missing Blocks: %d\n"+
			"Allocated Blocks: %d\n"+
			"Allocated: %d bytes\n"+
			"Alloc Failures: %d\n",
		st.PoolBytes/1024/1024,
		st.BlockSize/1024,
		st.TotalBlocks,
		st.MissingBlocks,
		st.AllocatedBlocks,
		st.AllocatedBytes,
		st.AllocFailures)
	return err
}

func renderDevice(w io.Writer, st Status) error {
	if _, err := fmt.Fprintf(w, "Device\n======\n"); err != nil {
		return err
	}
	if !st.DevicePresent {
		_, err := fmt.Fprintln(w, "Status: Not initialized")
		return err
	}
	_, err := fmt.Fprintf(w,
		"Status: Active\n"+
			"Device: %s\n"+
			"Transfers to device: %d\n"+
			"Transfers from device: %d\n"+
			"Bytes to device: %d\n"+
			"Bytes from device: %d\n"+
			"Kernel launches: %d\n",
		st.DeviceName,
		st.Device.TransfersToDevice,
		st.Device.TransfersFromDevice,
		st.Device.BytesToDevice,
		st.Device.BytesFromDevice,
		st.Device.KernelLaunches)
	return err
}

func renderSched(w io.Writer, st Status) error {
	available := "No"
	if st.DeviceAvailable {
		available = "Yes"
	}
	if _, err := fmt.Fprintf(w,
		"Scheduler\n"+
			"=========\n"+
			"Device Utilization: %d%%\n"+
			"Device Available: %s\n"+
			"Tasks: %d\n",
		st.Utilization, available, len(st.Tasks)); err != nil {
		return err
	}
	if len(st.Tasks) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "PID\tPriority\tDevice Time\n"); err != nil {
		return err
	}
	for _, task := range st.Tasks {
		if _, err := fmt.Fprintf(w, "%d\t%d\t\t%s\n",
			task.PID, task.Priority, task.DeviceTime); err != nil {
			return err
		}
	}
	return nil
}
