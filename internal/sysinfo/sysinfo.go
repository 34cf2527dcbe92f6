// Package sysinfo reads system-wide context recorded alongside every
// per-process sample.
package sysinfo

import (
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

// Snapshot holds the host-level values stored with each sample.
type Snapshot struct {
	Load1          float64 // 1-minute load average
	MemAvailableMB float64
}

// Collect returns the current host snapshot. Failures degrade to zero
// values; a sampling cycle never fails because host stats were unavailable.
func Collect() Snapshot {
	var s Snapshot
	if avg, err := load.Avg(); err == nil {
		s.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemAvailableMB = float64(vm.Available) / 1024.0 / 1024.0
	}
	return s
}
