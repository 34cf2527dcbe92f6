package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/7c/procmon/internal/pstable"
	"github.com/7c/procmon/internal/sysinfo"
)

// Sampler states. Stopping is only observable from other goroutines
// while a Stop is in flight.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateStopping = "stopping"
)

// SystemFunc supplies the host-level values recorded with every sample.
// Swappable for tests.
type SystemFunc func() (load1, memAvailableMB float64)

// CycleFunc is invoked after each completed cycle with the batch that
// was appended. cycle is 1-based.
type CycleFunc func(cycle int, batch map[string]Sample)

// Sampler drives the periodic collection loop: resolve each target,
// collect its counters, append one batch per cycle to the store.
type Sampler struct {
	provider pstable.Provider
	resolver *pstable.Resolver
	store    *Store
	targets  []string
	metrics  Metrics

	interval time.Duration
	duration time.Duration // 0 means run until stopped

	systemFn SystemFunc
	onCycle  CycleFunc

	mu      sync.Mutex
	state   string
	stopCh  chan struct{}
	doneCh  chan struct{}
	started time.Time

	// first observed identity per target, kept for zero samples and
	// for the aggregate report after the process exits
	seenMu   sync.Mutex
	seenComm map[string]string
	seenArgs map[string]string
}

func NewSampler(provider pstable.Provider, store *Store, targets []string, metrics Metrics) *Sampler {
	return &Sampler{
		provider: provider,
		resolver: pstable.NewResolver(provider),
		store:    store,
		targets:  targets,
		metrics:  metrics,
		state:    StateIdle,
		systemFn: func() (float64, float64) {
			snap := sysinfo.Collect()
			return snap.Load1, snap.MemAvailableMB
		},
		seenComm: make(map[string]string),
		seenArgs: make(map[string]string),
	}
}

// SetSystemFunc overrides the host snapshot source. Must be called
// before Start.
func (s *Sampler) SetSystemFunc(fn SystemFunc) { s.systemFn = fn }

// OnCycle registers a per-cycle callback. Must be called before Start.
// The callback runs on the sampling goroutine; keep it fast.
func (s *Sampler) OnCycle(fn CycleFunc) { s.onCycle = fn }

// State returns the current lifecycle state.
func (s *Sampler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the sampling loop has exited,
// whether by Stop or by reaching the configured duration.
func (s *Sampler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneCh
}

// Start launches the sampling loop. interval must be positive; duration
// zero means sample until Stop. Starting a running sampler is an error.
func (s *Sampler) Start(interval, duration time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	if duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", duration)
	}
	if len(s.targets) == 0 {
		return errors.New("no targets configured")
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("sampler is %s, not idle", s.state)
	}
	s.state = StateRunning
	s.interval = interval
	s.duration = duration
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.started = time.Now()
	s.mu.Unlock()

	go s.loop()
	return nil
}

// Stop requests termination and blocks until the loop has exited.
// Stopping an idle sampler is a no-op.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}

func (s *Sampler) loop() {
	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		close(s.doneCh)
		s.mu.Unlock()
	}()

	cycle := 0
	for {
		// Termination is decided before collecting, so a session with
		// duration 10s and interval 3s records cycles at 0s, 3s, 6s, 9s
		// and stops before the one at 12s.
		select {
		case <-s.stopCh:
			return
		default:
		}
		if s.duration > 0 && time.Since(s.started) >= s.duration {
			return
		}

		cycleStart := time.Now()
		cycle++
		batch := s.runCycle(cycle)
		if batch != nil {
			s.store.Append(batch)
			if s.onCycle != nil {
				s.onCycle(cycle, batch)
			}
		}

		sleep := s.interval - time.Since(cycleStart)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-s.stopCh:
			return
		case <-time.After(sleep):
		}
	}
}

// runCycle collects one sample per target. A panic anywhere in the
// cycle is recovered and the whole batch discarded, so a bad cycle
// never leaves series lengths uneven.
func (s *Sampler) runCycle(cycle int) (batch map[string]Sample) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sampling cycle panicked, batch dropped", "cycle", cycle, "panic", r)
			batch = nil
		}
	}()

	ctx := context.Background()
	ts := Now()
	load1, memAvail := s.systemFn()

	batch = make(map[string]Sample, len(s.targets))
	for _, target := range s.targets {
		batch[target] = s.collect(ctx, target, ts, load1, memAvail)
	}
	return batch
}

func (s *Sampler) collect(ctx context.Context, target string, ts Timestamp, load1, memAvail float64) Sample {
	pid, ok := s.resolver.Resolve(ctx, target)
	if !ok {
		return s.zeroSample(target, ts, load1, memAvail)
	}

	info, err := s.provider.Info(ctx, pid)
	if err != nil {
		if !errors.Is(err, pstable.ErrNoProcess) {
			slog.Warn("process query failed", "target", target, "pid", pid, "error", err)
		}
		return s.zeroSample(target, ts, load1, memAvail)
	}

	s.remember(target, info.Comm, info.Args)

	sample := Sample{
		Timestamp:        ts,
		Target:           target,
		TargetName:       targetName(target),
		PID:              info.PID,
		CPUPercent:       info.CPUPercent,
		MemoryPercent:    info.MemoryPercent,
		MemoryMB:         float64(info.RSSKB) / 1024.0,
		RSSKB:            info.RSSKB,
		VSZKB:            info.VSZKB,
		Command:          info.Comm,
		Args:             info.Args,
		SystemLoad:       load1,
		SystemMemAvailMB: memAvail,
	}
	s.collectOptional(ctx, pid, target, &sample)
	return sample
}

// collectOptional fills the enabled counter groups. A collection error
// on an enabled metric stores zero rather than dropping the field;
// ErrUnsupported drops the field since the platform can never supply it.
func (s *Sampler) collectOptional(ctx context.Context, pid int, target string, sample *Sample) {
	if s.metrics.FileDescriptors {
		n, err := s.provider.FDCount(ctx, pid)
		if err != nil && !errors.Is(err, pstable.ErrUnsupported) {
			n = 0
			err = nil
		}
		if err == nil {
			sample.FDCount = intPtr(n)
		}
	}
	if s.metrics.ThreadCount {
		n, err := s.provider.ThreadCount(ctx, pid)
		if err != nil && !errors.Is(err, pstable.ErrUnsupported) {
			n = 0
			err = nil
		}
		if err == nil {
			sample.ThreadCount = intPtr(n)
		}
	}
	if s.metrics.ContextSwitches {
		vol, invol, err := s.provider.ContextSwitches(ctx, pid)
		if err != nil && !errors.Is(err, pstable.ErrUnsupported) {
			vol, invol = 0, 0
			err = nil
		}
		if err == nil {
			sample.VoluntarySwitches = int64Ptr(vol)
			sample.InvolSwitches = int64Ptr(invol)
		}
	}
	if s.metrics.DiskIO {
		read, write, err := s.provider.DiskIO(ctx, pid)
		if err != nil && !errors.Is(err, pstable.ErrUnsupported) {
			read, write = 0, 0
			err = nil
		}
		if err == nil {
			sample.DiskReadBytes = int64Ptr(read)
			sample.DiskWriteBytes = int64Ptr(write)
		}
	}
}

// zeroSample records an all-zero measurement for a cycle in which the
// target could not be found, carrying the last known identity if any.
func (s *Sampler) zeroSample(target string, ts Timestamp, load1, memAvail float64) Sample {
	comm, args := s.lastSeen(target)
	sample := Sample{
		Timestamp:        ts,
		Target:           target,
		TargetName:       targetName(target),
		Command:          comm,
		Args:             args,
		SystemLoad:       load1,
		SystemMemAvailMB: memAvail,
	}
	if s.metrics.FileDescriptors {
		sample.FDCount = intPtr(0)
	}
	if s.metrics.ThreadCount {
		sample.ThreadCount = intPtr(0)
	}
	if s.metrics.ContextSwitches {
		sample.VoluntarySwitches = int64Ptr(0)
		sample.InvolSwitches = int64Ptr(0)
	}
	if s.metrics.DiskIO {
		sample.DiskReadBytes = int64Ptr(0)
		sample.DiskWriteBytes = int64Ptr(0)
	}
	return sample
}

func (s *Sampler) remember(target, comm, args string) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	if _, ok := s.seenComm[target]; !ok && comm != "" {
		s.seenComm[target] = comm
		s.seenArgs[target] = args
	}
}

func (s *Sampler) lastSeen(target string) (comm, args string) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.seenComm[target], s.seenArgs[target]
}

// targetName is the display label for a target: names pass through,
// numeric PID targets become "PID_<n>".
func targetName(target string) string {
	if pstable.IsNumeric(target) {
		if n, err := strconv.Atoi(target); err == nil {
			return "PID_" + strconv.Itoa(n)
		}
	}
	return target
}
