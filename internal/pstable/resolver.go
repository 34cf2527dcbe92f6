package pstable

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// IsNumeric reports whether target looks like a PID. Purely structural,
// no OS interaction.
func IsNumeric(target string) bool {
	_, err := strconv.Atoi(target)
	return err == nil
}

// Resolver maps configured monitoring targets to live PIDs.
type Resolver struct {
	provider Provider
}

func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// Resolve returns the PID for a target. A numeric target is taken as a
// direct PID candidate; a name is looked up with exact executable-name
// matching first, then command-line prefix matching. Candidates from the
// name lookup must pass VerifyExecutable — the lookup tool's own matching
// is fuzzier than ours and must not decide alone.
//
// ok=false means the target could not be resolved this cycle. That is a
// normal outcome; the target stays configured and is retried next cycle.
func (r *Resolver) Resolve(ctx context.Context, target string) (pid int, ok bool) {
	if IsNumeric(target) {
		pid, _ = strconv.Atoi(target)
		return pid, pid > 0
	}

	pids, err := r.provider.FindExact(ctx, target)
	if err != nil {
		slog.Warn("process lookup failed", "target", target, "error", err)
		return 0, false
	}
	if len(pids) > 0 {
		return r.firstVerified(ctx, pids, target)
	}

	pids, err = r.provider.FindPrefix(ctx, target)
	if err != nil {
		slog.Warn("process lookup failed", "target", target, "error", err)
		return 0, false
	}
	return r.firstVerified(ctx, pids, target)
}

func (r *Resolver) firstVerified(ctx context.Context, pids []int, name string) (int, bool) {
	for _, pid := range pids {
		if r.VerifyExecutable(ctx, pid, name) {
			return pid, true
		}
	}
	return 0, false
}

// VerifyExecutable reports whether the process's reported command name
// genuinely matches name: a case-insensitive exact match, or a full path
// ending in the name. A command "foobar" never satisfies a request for
// "foo".
func (r *Resolver) VerifyExecutable(ctx context.Context, pid int, name string) bool {
	comm, err := r.provider.CommandName(ctx, pid)
	if err != nil {
		return false
	}
	if strings.EqualFold(comm, name) {
		return true
	}
	return strings.HasSuffix(comm, "/"+name) || strings.HasSuffix(comm, `\`+name)
}
