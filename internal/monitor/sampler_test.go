package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/7c/procmon/internal/pstable"
)

// stubProvider serves a fixed process table. Safe for concurrent use.
type stubProvider struct {
	mu    sync.Mutex
	infos map[int]*pstable.ProcessInfo
	exact map[string][]int
	fds   map[int]int
}

func (p *stubProvider) FindExact(ctx context.Context, name string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exact[name], nil
}

func (p *stubProvider) FindPrefix(ctx context.Context, name string) ([]int, error) {
	return nil, nil
}

func (p *stubProvider) Info(ctx context.Context, pid int) (*pstable.ProcessInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.infos[pid]
	if !ok {
		return nil, pstable.ErrNoProcess
	}
	cp := *info
	return &cp, nil
}

func (p *stubProvider) CommandName(ctx context.Context, pid int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.infos[pid]
	if !ok {
		return "", pstable.ErrNoProcess
	}
	return info.Comm, nil
}

func (p *stubProvider) FDCount(ctx context.Context, pid int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fds[pid], nil
}

func (p *stubProvider) ThreadCount(ctx context.Context, pid int) (int, error) { return 4, nil }
func (p *stubProvider) ContextSwitches(ctx context.Context, pid int) (int64, int64, error) {
	return 0, 0, pstable.ErrUnsupported
}
func (p *stubProvider) DiskIO(ctx context.Context, pid int) (int64, int64, error) {
	return 100, 50, nil
}

func newTestSampler(t *testing.T, provider pstable.Provider, targets []string, metrics Metrics) (*Sampler, *Store) {
	t.Helper()
	store := NewStore()
	s := NewSampler(provider, store, targets, metrics)
	s.SetSystemFunc(func() (float64, float64) { return 0.5, 2048 })
	return s, store
}

func TestSamplerCollectsEqualSeriesLengths(t *testing.T) {
	p := &stubProvider{
		infos: map[int]*pstable.ProcessInfo{
			100: {PID: 100, Comm: "nginx", CPUPercent: 2.0, RSSKB: 1024},
		},
		exact: map[string][]int{"nginx": {100}},
	}
	s, store := newTestSampler(t, p, []string{"nginx", "ghost"}, Metrics{})

	cycles := make(chan int, 16)
	s.OnCycle(func(cycle int, batch map[string]Sample) { cycles <- cycle })

	if err := s.Start(5*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cycles")
		}
	}
	s.Stop()

	snap := store.Snapshot()
	if len(snap["nginx"]) != len(snap["ghost"]) {
		t.Fatalf("series lengths diverged: nginx=%d ghost=%d", len(snap["nginx"]), len(snap["ghost"]))
	}
	if len(snap["nginx"]) < 5 {
		t.Fatalf("expected at least 5 cycles, got %d", len(snap["nginx"]))
	}

	// nginx resolved every cycle, ghost never did
	for _, sample := range snap["nginx"] {
		if sample.PID != 100 || sample.CPUPercent != 2.0 {
			t.Fatalf("unexpected nginx sample: %+v", sample)
		}
		if sample.SystemLoad != 0.5 || sample.SystemMemAvailMB != 2048 {
			t.Fatalf("host context missing from sample: %+v", sample)
		}
	}
	for _, sample := range snap["ghost"] {
		if !sample.Zero() {
			t.Fatalf("ghost should yield zero samples, got %+v", sample)
		}
		if sample.TargetName != "ghost" {
			t.Errorf("zero sample lost its name: %q", sample.TargetName)
		}
	}
}

func TestSamplerDurationSelfTerminates(t *testing.T) {
	p := &stubProvider{
		infos: map[int]*pstable.ProcessInfo{100: {PID: 100, Comm: "nginx"}},
		exact: map[string][]int{"nginx": {100}},
	}
	s, store := newTestSampler(t, p, []string{"nginx"}, Metrics{})

	// interval 30ms, duration 100ms: cycles at 0, 30, 60, 90ms, then the
	// top-of-loop check stops the run. Scheduling jitter may drop one.
	if err := s.Start(30*time.Millisecond, 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("sampler did not self-terminate")
	}

	if s.State() != StateIdle {
		t.Errorf("state after termination = %q, want idle", s.State())
	}
	n := store.Len("nginx")
	if n < 3 || n > 4 {
		t.Errorf("cycle count = %d, want 3 or 4", n)
	}
}

func TestSamplerStateTransitions(t *testing.T) {
	p := &stubProvider{
		infos: map[int]*pstable.ProcessInfo{100: {PID: 100, Comm: "nginx"}},
		exact: map[string][]int{"nginx": {100}},
	}
	s, _ := newTestSampler(t, p, []string{"nginx"}, Metrics{})

	if s.State() != StateIdle {
		t.Fatalf("initial state = %q", s.State())
	}
	if err := s.Start(10*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateRunning {
		t.Fatalf("state after Start = %q", s.State())
	}
	if err := s.Start(10*time.Millisecond, 0); err == nil {
		t.Error("second Start on a running sampler should fail")
	}

	s.Stop()
	if s.State() != StateIdle {
		t.Errorf("state after Stop = %q", s.State())
	}

	// the sampler is reusable after a full stop
	if err := s.Start(10*time.Millisecond, 0); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	s.Stop()
}

func TestSamplerStartValidation(t *testing.T) {
	p := &stubProvider{}
	s, _ := newTestSampler(t, p, []string{"nginx"}, Metrics{})

	if err := s.Start(0, 0); err == nil {
		t.Error("zero interval should be rejected")
	}
	if err := s.Start(time.Second, -time.Second); err == nil {
		t.Error("negative duration should be rejected")
	}

	empty, _ := newTestSampler(t, p, nil, Metrics{})
	if err := empty.Start(time.Second, 0); err == nil {
		t.Error("empty target list should be rejected")
	}
}

func TestSamplerStopIsIdempotent(t *testing.T) {
	p := &stubProvider{}
	s, _ := newTestSampler(t, p, []string{"x"}, Metrics{})
	s.Stop() // idle, no-op

	if err := s.Start(10*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
}

func TestSamplerOptionalMetrics(t *testing.T) {
	p := &stubProvider{
		infos: map[int]*pstable.ProcessInfo{100: {PID: 100, Comm: "nginx"}},
		exact: map[string][]int{"nginx": {100}},
		fds:   map[int]int{100: 12},
	}
	metrics := Metrics{FileDescriptors: true, ThreadCount: true, ContextSwitches: true, DiskIO: true}
	s, store := newTestSampler(t, p, []string{"nginx"}, metrics)

	done := make(chan struct{})
	s.OnCycle(func(cycle int, batch map[string]Sample) {
		if cycle == 1 {
			close(done)
		}
	})
	if err := s.Start(5*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	<-done
	s.Stop()

	sample := store.Snapshot()["nginx"][0]
	if sample.FDCount == nil || *sample.FDCount != 12 {
		t.Errorf("fd_count = %v, want 12", sample.FDCount)
	}
	if sample.ThreadCount == nil || *sample.ThreadCount != 4 {
		t.Errorf("thread_count = %v, want 4", sample.ThreadCount)
	}
	if sample.DiskReadBytes == nil || *sample.DiskReadBytes != 100 {
		t.Errorf("disk_read_bytes = %v, want 100", sample.DiskReadBytes)
	}
	// context switches are unsupported by the stub, so the fields stay absent
	if sample.VoluntarySwitches != nil {
		t.Errorf("voluntary_switches should be absent, got %v", *sample.VoluntarySwitches)
	}
}

func TestSamplerZeroSampleCarriesEnabledMetrics(t *testing.T) {
	p := &stubProvider{}
	s, store := newTestSampler(t, p, []string{"ghost"}, Metrics{FileDescriptors: true})

	done := make(chan struct{})
	s.OnCycle(func(cycle int, batch map[string]Sample) {
		if cycle == 1 {
			close(done)
		}
	})
	if err := s.Start(5*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	<-done
	s.Stop()

	sample := store.Snapshot()["ghost"][0]
	if !sample.Zero() {
		t.Fatalf("expected zero sample, got %+v", sample)
	}
	if sample.FDCount == nil || *sample.FDCount != 0 {
		t.Errorf("enabled metric should be present as zero, got %v", sample.FDCount)
	}
	if sample.ThreadCount != nil {
		t.Error("disabled metric should stay absent in a zero sample")
	}
}

func TestSamplerPanicDropsBatch(t *testing.T) {
	p := &stubProvider{
		infos: map[int]*pstable.ProcessInfo{100: {PID: 100, Comm: "nginx"}},
		exact: map[string][]int{"nginx": {100}},
	}
	s, store := newTestSampler(t, p, []string{"nginx"}, Metrics{})

	calls := 0
	s.SetSystemFunc(func() (float64, float64) {
		calls++
		if calls == 2 {
			panic("host stats exploded")
		}
		return 0, 0
	})

	cycles := make(chan struct{}, 16)
	s.OnCycle(func(cycle int, batch map[string]Sample) { cycles <- struct{}{} })

	if err := s.Start(5*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatal("sampler died after the panic")
		}
	}
	s.Stop()

	// cycle 2 panicked, so the store holds fewer samples than loop
	// iterations but the loop kept running
	if store.Len("nginx") < 3 {
		t.Errorf("store has %d samples, want at least 3 surviving cycles", store.Len("nginx"))
	}
}

func TestTargetName(t *testing.T) {
	if got := targetName("nginx"); got != "nginx" {
		t.Errorf("targetName(nginx) = %q", got)
	}
	if got := targetName("4242"); got != "PID_4242" {
		t.Errorf("targetName(4242) = %q", got)
	}
}
