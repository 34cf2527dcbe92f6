package pstable

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runCommand executes an external lookup tool under the package query
// timeout. Exit status 1 from pgrep-style tools means "no matches" and is
// returned as empty output, not an error.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s timed out after %s: %w", name, queryTimeout, ctx.Err())
	}
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// pgrepExact returns PIDs whose executable name matches name exactly.
func pgrepExact(ctx context.Context, name string) ([]int, error) {
	out, err := runCommand(ctx, "pgrep", "-x", name)
	if err != nil {
		return nil, err
	}
	return parsePIDLines(out), nil
}

// pgrepPrefix returns PIDs whose full command line starts with name.
func pgrepPrefix(ctx context.Context, name string) ([]int, error) {
	out, err := runCommand(ctx, "pgrep", "-f", "^"+name)
	if err != nil {
		return nil, err
	}
	return parsePIDLines(out), nil
}

func parsePIDLines(out string) []int {
	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// psInfo queries ps for a single-process snapshot. Used as the primary
// implementation on macOS.
func psInfo(ctx context.Context, pid int) (*ProcessInfo, error) {
	out, err := runCommand(ctx, "ps", "-p", strconv.Itoa(pid),
		"-o", "pid,ppid,pcpu,pmem,rss,vsz,etime,comm,args")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil, ErrNoProcess
	}
	return parsePSLine(lines[1])
}

// parsePSLine parses one ps output row in the column order
// pid,ppid,pcpu,pmem,rss,vsz,etime,comm,args.
func parsePSLine(line string) (*ProcessInfo, error) {
	parts := strings.Fields(line)
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected ps output: %q", line)
	}

	info := &ProcessInfo{}
	var err error
	if info.PID, err = strconv.Atoi(parts[0]); err != nil {
		return nil, fmt.Errorf("unexpected ps output: %q", line)
	}
	info.PPID, _ = strconv.Atoi(parts[1])
	info.CPUPercent, _ = strconv.ParseFloat(parts[2], 64)
	info.MemoryPercent, _ = strconv.ParseFloat(parts[3], 64)
	info.RSSKB, _ = strconv.ParseInt(parts[4], 10, 64)
	info.VSZKB, _ = strconv.ParseInt(parts[5], 10, 64)
	info.Etime = parts[6]
	info.Comm = parts[7]
	if len(parts) > 8 {
		info.Args = strings.Join(parts[8:], " ")
	} else {
		info.Args = parts[7]
	}
	return info, nil
}

// psComm returns the command name ps reports for pid, or ErrNoProcess.
func psComm(ctx context.Context, pid int) (string, error) {
	out, err := runCommand(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "comm=")
	if err != nil {
		return "", err
	}
	comm := strings.TrimSpace(out)
	if comm == "" {
		return "", ErrNoProcess
	}
	return comm, nil
}
