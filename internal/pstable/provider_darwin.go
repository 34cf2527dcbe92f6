//go:build darwin

package pstable

import (
	"context"
	"strconv"
	"strings"
)

// NewProvider returns the ps/lsof-backed provider used on macOS, where
// there is no procfs to read.
func NewProvider() Provider {
	return &psProvider{}
}

type psProvider struct{}

func (p *psProvider) FindExact(ctx context.Context, name string) ([]int, error) {
	return pgrepExact(ctx, name)
}

func (p *psProvider) FindPrefix(ctx context.Context, name string) ([]int, error) {
	return pgrepPrefix(ctx, name)
}

func (p *psProvider) Info(ctx context.Context, pid int) (*ProcessInfo, error) {
	return psInfo(ctx, pid)
}

func (p *psProvider) CommandName(ctx context.Context, pid int) (string, error) {
	return psComm(ctx, pid)
}

func (p *psProvider) FDCount(ctx context.Context, pid int) (int, error) {
	out, err := runCommand(ctx, "lsof", "-p", strconv.Itoa(pid))
	if err != nil {
		return 0, err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 1 {
		return 0, nil
	}
	return len(lines) - 1, nil // minus header line
}

func (p *psProvider) ThreadCount(ctx context.Context, pid int) (int, error) {
	out, err := runCommand(ctx, "ps", "-p", strconv.Itoa(pid), "-M")
	if err != nil {
		return 0, err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 1 {
		return 0, ErrNoProcess
	}
	return len(lines) - 1, nil // one row per thread, minus header
}

func (p *psProvider) ContextSwitches(ctx context.Context, pid int) (int64, int64, error) {
	return 0, 0, ErrUnsupported
}

func (p *psProvider) DiskIO(ctx context.Context, pid int) (int64, int64, error) {
	return 0, 0, ErrUnsupported
}
