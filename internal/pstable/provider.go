package pstable

import (
	"context"
	"errors"
	"time"
)

// queryTimeout bounds every external process-table query. A query that
// exceeds it is treated the same as "process not found" for that cycle.
const queryTimeout = 3 * time.Second

var (
	// ErrNoProcess means the PID does not exist (anymore). This is a normal
	// outcome during monitoring, not a failure.
	ErrNoProcess = errors.New("no such process")

	// ErrUnsupported means the metric cannot be collected on this platform.
	ErrUnsupported = errors.New("metric not supported on this platform")
)

// ProcessInfo is a single-process snapshot from the OS process table.
type ProcessInfo struct {
	PID           int
	PPID          int
	CPUPercent    float64
	MemoryPercent float64
	RSSKB         int64
	VSZKB         int64
	Etime         string
	Comm          string
	Args          string
}

// Provider is the OS process-table query capability. The implementation is
// chosen once per platform by NewProvider (procfs on Linux, ps/lsof on
// macOS) and injected; call sites never branch on the OS.
type Provider interface {
	// FindExact returns PIDs whose executable name matches exactly.
	FindExact(ctx context.Context, name string) ([]int, error)

	// FindPrefix returns PIDs whose full command line starts with name.
	FindPrefix(ctx context.Context, name string) ([]int, error)

	// Info returns a snapshot for pid, or ErrNoProcess once it has exited.
	Info(ctx context.Context, pid int) (*ProcessInfo, error)

	// CommandName returns the short command name the kernel reports for pid.
	CommandName(ctx context.Context, pid int) (string, error)

	// FDCount returns the number of open file descriptors.
	FDCount(ctx context.Context, pid int) (int, error)

	// ThreadCount returns the number of OS threads.
	ThreadCount(ctx context.Context, pid int) (int, error)

	// ContextSwitches returns cumulative voluntary and involuntary context
	// switch counters, or ErrUnsupported.
	ContextSwitches(ctx context.Context, pid int) (voluntary, involuntary int64, err error)

	// DiskIO returns cumulative bytes read from and written to storage,
	// or ErrUnsupported.
	DiskIO(ctx context.Context, pid int) (read, write int64, err error)
}
