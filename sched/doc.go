// Package sched
// Author: momentics <momentics@gmail.com>
//
// Scheduling hint layer for identified accelerator workloads: priority
// boosting and device-utilization tracking. Fully independent of the
// pinned pool; it never touches allocator data structures.
package sched
