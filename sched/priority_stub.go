//go:build !linux
// +build !linux

// File: sched/priority_stub.go
// Author: momentics <momentics@gmail.com>
//
// No-op priority adjustment on platforms without setpriority support.

package sched

func setPriority(pid, nice int) error { return nil }
