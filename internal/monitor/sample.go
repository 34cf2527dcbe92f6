package monitor

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed encoding for sample timestamps in persisted
// data files. One-second granularity, no zone suffix.
const TimeLayout = "2006-01-02T15:04:05"

// Timestamp wraps time.Time with the fixed JSON layout above.
type Timestamp struct {
	time.Time
}

func Now() Timestamp {
	return Timestamp{time.Now()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(TimeLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Metrics selects which optional counters a session collects. The basic
// cpu/memory trio is always collected.
type Metrics struct {
	FileDescriptors bool
	ThreadCount     bool
	ContextSwitches bool
	DiskIO          bool
}

// Sample is one timestamped measurement for a target. A zero sample
// (PID 0, zero counters) is recorded when the target's process cannot be
// found during a cycle, keeping all series the same length.
//
// Optional counter fields are pointers: nil means the metric group was not
// enabled for the session, and stays absent through a persist/load round
// trip. An enabled-but-zero counter is a non-nil pointer to 0.
type Sample struct {
	Timestamp        Timestamp `json:"timestamp"`
	Target           string    `json:"target"`
	TargetName       string    `json:"target_name"`
	PID              int       `json:"pid"`
	CPUPercent       float64   `json:"cpu_percent"`
	MemoryPercent    float64   `json:"memory_percent"`
	MemoryMB         float64   `json:"memory_mb"`
	RSSKB            int64     `json:"rss_kb"`
	VSZKB            int64     `json:"vsz_kb"`
	Command          string    `json:"command"`
	Args             string    `json:"args"`
	SystemLoad       float64   `json:"system_load"`
	SystemMemAvailMB float64   `json:"system_mem_available_mb"`

	FDCount            *int   `json:"fd_count,omitempty"`
	ThreadCount        *int   `json:"thread_count,omitempty"`
	VoluntarySwitches  *int64 `json:"voluntary_switches,omitempty"`
	InvolSwitches      *int64 `json:"involuntary_switches,omitempty"`
	DiskReadBytes      *int64 `json:"disk_read_bytes,omitempty"`
	DiskWriteBytes     *int64 `json:"disk_write_bytes,omitempty"`
	NetworkRxBytes     *int64 `json:"network_rx_bytes,omitempty"`
	NetworkTxBytes     *int64 `json:"network_tx_bytes,omitempty"`
}

// Zero reports whether this is a synthesized zero sample.
func (s Sample) Zero() bool {
	return s.PID == 0
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
