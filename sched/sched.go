// File: sched/sched.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Registry of identified accelerator workloads. Capacity-bounded; the
// priority boost is best-effort and a failed OS call is logged, never
// escalated.

package sched

import (
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-devmem/api"
)

// MaxTasks bounds the registry.
const MaxTasks = 1024

// availableBelow is the utilization threshold under which the device is
// considered available for new dispatches.
const availableBelow = 50

// TaskInfo describes one registered workload.
type TaskInfo struct {
	PID        int
	Priority   int // 0-100
	DeviceTime time.Duration
	Inference  bool
}

// Registry tracks workloads and the device utilization gauge.
type Registry struct {
	mu    sync.Mutex
	tasks map[int]*TaskInfo

	utilization atomic.Int32 // 0-100
}

// NewRegistry creates an empty workload registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[int]*TaskInfo)}
}

// Register adds a workload. Priority outside 0-100 is clamped and logged.
// Returns api.ErrResourceExhausted once MaxTasks is reached.
func (r *Registry) Register(pid, priority int, comm string) error {
	if priority < 0 || priority > 100 {
		log.Printf("[sched] priority %d for PID %d clamped to 0-100", priority, pid)
		priority = min(100, max(0, priority))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[pid]; !ok && len(r.tasks) >= MaxTasks {
		return api.ErrResourceExhausted
	}
	r.tasks[pid] = &TaskInfo{
		PID:       pid,
		Priority:  priority,
		Inference: IsInferenceCommand(comm),
	}
	log.Printf("[sched] registered task PID %d with priority %d", pid, priority)
	return nil
}

// Unregister removes a workload; unknown PIDs are ignored.
func (r *Registry) Unregister(pid int) {
	r.mu.Lock()
	delete(r.tasks, pid)
	r.mu.Unlock()
}

// Boost applies an OS nice adjustment derived from the registered
// priority. A failed OS call is logged and reported, not fatal.
func (r *Registry) Boost(pid int) error {
	r.mu.Lock()
	task, ok := r.tasks[pid]
	r.mu.Unlock()
	if !ok {
		return api.ErrNotFound
	}

	nice := -(task.Priority / 10)
	if err := setPriority(pid, nice); err != nil {
		log.Printf("[sched] priority boost for PID %d failed: %v", pid, err)
		return err
	}
	return nil
}

// AddDeviceTime accumulates device occupancy for a workload.
func (r *Registry) AddDeviceTime(pid int, d time.Duration) {
	r.mu.Lock()
	if task, ok := r.tasks[pid]; ok {
		task.DeviceTime += d
	}
	r.mu.Unlock()
}

// SetUtilization updates the device utilization gauge (0-100, clamped).
func (r *Registry) SetUtilization(pct int) {
	r.utilization.Store(int32(min(100, max(0, pct))))
}

// Utilization returns the last reported device utilization.
func (r *Registry) Utilization() int { return int(r.utilization.Load()) }

// Available reports whether the device has headroom for new dispatches.
func (r *Registry) Available() bool { return r.Utilization() < availableBelow }

// Len returns the number of registered workloads.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Snapshot returns registered workloads ordered by PID.
func (r *Registry) Snapshot() []TaskInfo {
	r.mu.Lock()
	out := make([]TaskInfo, 0, len(r.tasks))
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// IsInferenceCommand heuristically classifies a command name as an
// inference workload by comm substring.
func IsInferenceCommand(comm string) bool {
	comm = strings.ToLower(comm)
	return strings.Contains(comm, "python") || strings.Contains(comm, "ai")
}
