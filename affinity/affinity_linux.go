//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation on top of sched_setaffinity(2). A tid of 0 binds
// the calling thread, which is what the pinned-worker callers need.

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.WithMessagef(err, "affinity: bind to cpu %d", cpuID)
	}
	return nil
}
