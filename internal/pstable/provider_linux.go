//go:build linux

package pstable

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const clockTicksPerSec = 100 // standard on virtually all Linux systems

// NewProvider returns the procfs-backed provider. Name lookups still go
// through pgrep; everything per-PID is read from /proc directly.
func NewProvider() Provider {
	return &procProvider{}
}

type procProvider struct{}

func (p *procProvider) FindExact(ctx context.Context, name string) ([]int, error) {
	return pgrepExact(ctx, name)
}

func (p *procProvider) FindPrefix(ctx context.Context, name string) ([]int, error) {
	return pgrepPrefix(ctx, name)
}

func (p *procProvider) Info(ctx context.Context, pid int) (*ProcessInfo, error) {
	if !procExists(pid) {
		return nil, ErrNoProcess
	}

	info := &ProcessInfo{PID: pid}

	status := readProcFile(pid, "status")
	if status == "" {
		return nil, ErrNoProcess
	}
	for _, line := range strings.Split(status, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], strings.TrimSpace(parts[1])
		switch key {
		case "Name":
			info.Comm = val
		case "VmRSS":
			info.RSSKB = parseKB(val)
		case "VmSize":
			info.VSZKB = parseKB(val)
		}
	}

	fields := parseStatFields(readProcFile(pid, "stat"))
	if len(fields) > 21 {
		info.PPID, _ = strconv.Atoi(fields[3])

		utime, _ := strconv.ParseInt(fields[13], 10, 64)
		stime, _ := strconv.ParseInt(fields[14], 10, 64)
		cpuSec := float64(utime+stime) / float64(clockTicksPerSec)

		startTicks, _ := strconv.ParseInt(fields[21], 10, 64)
		if btime := readBtime(); btime > 0 && startTicks > 0 {
			started := time.Unix(btime+startTicks/clockTicksPerSec, 0)
			uptime := time.Since(started)
			if uptime > 0 {
				info.CPUPercent = cpuSec / uptime.Seconds() * 100
			}
			info.Etime = formatEtime(uptime)
		}
	}

	if total := readMemTotalKB(); total > 0 {
		info.MemoryPercent = float64(info.RSSKB) / float64(total) * 100
	}

	cmdline := readProcFile(pid, "cmdline")
	if cmdline != "" {
		args := strings.Split(strings.TrimRight(cmdline, "\x00"), "\x00")
		info.Args = strings.Join(args, " ")
	} else {
		info.Args = info.Comm
	}

	return info, nil
}

func (p *procProvider) CommandName(ctx context.Context, pid int) (string, error) {
	comm := strings.TrimSpace(readProcFile(pid, "comm"))
	if comm == "" {
		return "", ErrNoProcess
	}
	return comm, nil
}

func (p *procProvider) FDCount(ctx context.Context, pid int) (int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/fd", pid))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoProcess
		}
		return 0, err
	}
	return len(entries), nil
}

func (p *procProvider) ThreadCount(ctx context.Context, pid int) (int, error) {
	status := readProcFile(pid, "status")
	if status == "" {
		return 0, ErrNoProcess
	}
	for _, line := range strings.Split(status, "\n") {
		if strings.HasPrefix(line, "Threads:") {
			n, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Threads:")))
			return n, nil
		}
	}
	return 0, nil
}

func (p *procProvider) ContextSwitches(ctx context.Context, pid int) (int64, int64, error) {
	status := readProcFile(pid, "status")
	if status == "" {
		return 0, 0, ErrNoProcess
	}
	var voluntary, involuntary int64
	for _, line := range strings.Split(status, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		val := strings.TrimSpace(parts[1])
		switch parts[0] {
		case "voluntary_ctxt_switches":
			voluntary, _ = strconv.ParseInt(val, 10, 64)
		case "nonvoluntary_ctxt_switches":
			involuntary, _ = strconv.ParseInt(val, 10, 64)
		}
	}
	return voluntary, involuntary, nil
}

func (p *procProvider) DiskIO(ctx context.Context, pid int) (int64, int64, error) {
	// /proc/<pid>/io requires matching ownership or CAP_SYS_PTRACE;
	// a permission error surfaces as zero counters upstream.
	data := readProcFile(pid, "io")
	if data == "" {
		if !procExists(pid) {
			return 0, 0, ErrNoProcess
		}
		return 0, 0, nil
	}
	var read, write int64
	for _, line := range strings.Split(data, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		val := strings.TrimSpace(parts[1])
		switch parts[0] {
		case "read_bytes":
			read, _ = strconv.ParseInt(val, 10, 64)
		case "write_bytes":
			write, _ = strconv.ParseInt(val, 10, 64)
		}
	}
	return read, write, nil
}

// --- procfs helpers ---

func procExists(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

func readProcFile(pid int, name string) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/%s", pid, name))
	if err != nil {
		return ""
	}
	return string(data)
}

// parseStatFields parses /proc/<pid>/stat correctly, handling the comm
// field which may contain spaces and parens.
func parseStatFields(stat string) []string {
	start := strings.IndexByte(stat, '(')
	end := strings.LastIndexByte(stat, ')')
	if start < 1 || end < 0 || end <= start {
		return nil
	}

	fields := []string{stat[:start-1], stat[start+1 : end]}
	fields = append(fields, strings.Fields(stat[end+2:])...)
	return fields
}

func parseKB(s string) int64 {
	// e.g. "45312 kB"
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, _ := strconv.ParseInt(fields[0], 10, 64)
	return v
}

func readBtime() int64 {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "btime ") {
			v, _ := strconv.ParseInt(strings.TrimPrefix(line, "btime "), 10, 64)
			return v
		}
	}
	return 0
}

func readMemTotalKB() int64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			return parseKB(strings.TrimPrefix(line, "MemTotal:"))
		}
	}
	return 0
}

// formatEtime renders elapsed time in the ps ETIME style ([[dd-]hh:]mm:ss).
func formatEtime(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60
	s := secs % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, mins, s)
	case hours > 0:
		return fmt.Sprintf("%02d:%02d:%02d", hours, mins, s)
	default:
		return fmt.Sprintf("%02d:%02d", mins, s)
	}
}
