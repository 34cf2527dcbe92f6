package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store is the concurrent-safe time-series store for samples, keyed by
// target identifier. A cycle's batch is appended atomically: readers
// never observe some targets updated for a cycle and others not.
type Store struct {
	mu     sync.Mutex
	series map[string][]Sample
}

func NewStore() *Store {
	return &Store{series: make(map[string][]Sample)}
}

// Append adds one sample per target under a single lock acquisition.
func (s *Store) Append(batch map[string]Sample) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for target, sample := range batch {
		s.series[target] = append(s.series[target], sample)
	}
}

// Snapshot returns a deep copy of all series. Mutating the returned map
// or its slices never affects the store.
func (s *Store) Snapshot() map[string][]Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]Sample, len(s.series))
	for target, samples := range s.series {
		cp := make([]Sample, len(samples))
		copy(cp, samples)
		out[target] = cp
	}
	return out
}

// Len returns the series length for a target, zero if unknown.
func (s *Store) Len(target string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.series[target])
}

// Targets returns the set of target keys currently stored.
func (s *Store) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.series))
	for target := range s.series {
		out = append(out, target)
	}
	return out
}

// Save writes all series as indented JSON to path.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadSamples reads a data file previously written by Save.
func LoadSamples(path string) (map[string][]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var series map[string][]Sample
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return series, nil
}
