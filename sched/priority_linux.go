//go:build linux
// +build linux

// File: sched/priority_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux nice adjustment via setpriority(2). Raising priority (negative
// nice) requires CAP_SYS_NICE.

package sched

import "golang.org/x/sys/unix"

func setPriority(pid, nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, pid, nice)
}
