package monitor

import "sync"

// ringCapacity bounds the per-target history kept for live views. At a
// 1s interval this covers ten minutes of samples.
const ringCapacity = 600

// sampleRing is a fixed-capacity ring buffer of samples.
type sampleRing struct {
	buf  []Sample
	head int // next write position
	size int
}

func newSampleRing() *sampleRing {
	return &sampleRing{buf: make([]Sample, ringCapacity)}
}

func (r *sampleRing) push(s Sample) {
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// all returns the ring contents oldest first.
func (r *sampleRing) all() []Sample {
	out := make([]Sample, 0, r.size)
	start := r.head - r.size
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// History keeps a bounded recent window of samples per target for the
// live dashboard. Unlike Store it forgets old samples and is not the
// source for aggregation.
type History struct {
	mu    sync.Mutex
	rings map[string]*sampleRing
}

func NewHistory() *History {
	return &History{rings: make(map[string]*sampleRing)}
}

// Push records one cycle's batch.
func (h *History) Push(batch map[string]Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for target, sample := range batch {
		ring, ok := h.rings[target]
		if !ok {
			ring = newSampleRing()
			h.rings[target] = ring
		}
		ring.push(sample)
	}
}

// Recent returns the retained samples for a target, oldest first.
func (h *History) Recent(target string) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring, ok := h.rings[target]
	if !ok {
		return nil
	}
	return ring.all()
}

// Latest returns the most recent sample for a target, if any.
func (h *History) Latest(target string) (Sample, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring, ok := h.rings[target]
	if !ok || ring.size == 0 {
		return Sample{}, false
	}
	idx := ring.head - 1
	if idx < 0 {
		idx += len(ring.buf)
	}
	return ring.buf[idx], true
}
