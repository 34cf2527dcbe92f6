// Package stats turns raw sample series into per-target aggregates.
package stats

import (
	"math"
	"sort"

	"github.com/7c/procmon/internal/monitor"
)

// Metric summarizes one series of values. Data keeps the raw points so
// charts and reports can be rebuilt from a saved aggregate.
type Metric struct {
	Avg  float64   `json:"avg"`
	Max  float64   `json:"max"`
	Min  float64   `json:"min"`
	Std  float64   `json:"std"`
	Data []float64 `json:"data"`
}

// Optional counter groups. A group appears in the aggregate only when
// the metric was collected and at least one sample had a nonzero value.
type IOGroup struct {
	ReadBytes  Metric `json:"read_bytes"`
	WriteBytes Metric `json:"write_bytes"`
}

type NetGroup struct {
	RxBytes Metric `json:"rx_bytes"`
	TxBytes Metric `json:"tx_bytes"`
}

type SwitchGroup struct {
	Voluntary   Metric `json:"voluntary"`
	Involuntary Metric `json:"involuntary"`
}

// TargetStats is the per-target aggregate over a whole session.
type TargetStats struct {
	TargetName   string `json:"target_name"`
	PID          int    `json:"pid"`
	Command      string `json:"command"`
	Args         string `json:"args"`
	DataPoints   int    `json:"data_points"`
	TestDuration float64 `json:"test_duration"` // seconds, first to last sample
	Start        monitor.Timestamp `json:"start"`
	End          monitor.Timestamp `json:"end"`

	CPU           Metric `json:"cpu_percent"`
	MemoryPercent Metric `json:"memory_percent"`
	MemoryMB      Metric `json:"memory_mb"`
	RSSKB         Metric `json:"rss_kb"`
	VSZKB         Metric `json:"vsz_kb"`

	FDCount         *Metric      `json:"fd_count,omitempty"`
	ThreadCount     *Metric      `json:"thread_count,omitempty"`
	ContextSwitches *SwitchGroup `json:"context_switches,omitempty"`
	DiskIO          *IOGroup     `json:"disk_io,omitempty"`
	NetworkIO       *NetGroup    `json:"network_io,omitempty"`
}

// Analyze aggregates one target's series. Returns nil for an empty
// series: a target that never produced a sample has no statistics.
func Analyze(samples []monitor.Sample) *TargetStats {
	if len(samples) == 0 {
		return nil
	}

	ts := &TargetStats{
		TargetName:   samples[0].TargetName,
		DataPoints:   len(samples),
		Start:        samples[0].Timestamp,
		End:          samples[len(samples)-1].Timestamp,
		TestDuration: samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp.Time).Seconds(),
	}

	// identity comes from the first sample that actually saw the process
	for _, s := range samples {
		if !s.Zero() {
			ts.PID = s.PID
			ts.Command = s.Command
			ts.Args = s.Args
			break
		}
	}
	if ts.Command == "" {
		ts.Command = samples[0].Command
		ts.Args = samples[0].Args
	}

	ts.CPU = summarize(collect(samples, func(s monitor.Sample) float64 { return s.CPUPercent }))
	ts.MemoryPercent = summarize(collect(samples, func(s monitor.Sample) float64 { return s.MemoryPercent }))
	ts.MemoryMB = summarize(collect(samples, func(s monitor.Sample) float64 { return s.MemoryMB }))
	ts.RSSKB = summarize(collect(samples, func(s monitor.Sample) float64 { return float64(s.RSSKB) }))
	ts.VSZKB = summarize(collect(samples, func(s monitor.Sample) float64 { return float64(s.VSZKB) }))

	if vals, ok := collectInt(samples, func(s monitor.Sample) *int { return s.FDCount }); ok {
		m := summarize(vals)
		ts.FDCount = &m
	}
	if vals, ok := collectInt(samples, func(s monitor.Sample) *int { return s.ThreadCount }); ok {
		m := summarize(vals)
		ts.ThreadCount = &m
	}
	vol, okV := collectInt64(samples, func(s monitor.Sample) *int64 { return s.VoluntarySwitches })
	invol, okI := collectInt64(samples, func(s monitor.Sample) *int64 { return s.InvolSwitches })
	if okV || okI {
		ts.ContextSwitches = &SwitchGroup{Voluntary: summarize(vol), Involuntary: summarize(invol)}
	}
	read, okR := collectInt64(samples, func(s monitor.Sample) *int64 { return s.DiskReadBytes })
	write, okW := collectInt64(samples, func(s monitor.Sample) *int64 { return s.DiskWriteBytes })
	if okR || okW {
		ts.DiskIO = &IOGroup{ReadBytes: summarize(read), WriteBytes: summarize(write)}
	}
	rx, okRx := collectInt64(samples, func(s monitor.Sample) *int64 { return s.NetworkRxBytes })
	tx, okTx := collectInt64(samples, func(s monitor.Sample) *int64 { return s.NetworkTxBytes })
	if okRx || okTx {
		ts.NetworkIO = &NetGroup{RxBytes: summarize(rx), TxBytes: summarize(tx)}
	}

	return ts
}

// AnalyzeAll aggregates every target with at least one sample.
func AnalyzeAll(series map[string][]monitor.Sample) map[string]*TargetStats {
	out := make(map[string]*TargetStats, len(series))
	for target, samples := range series {
		if stats := Analyze(samples); stats != nil {
			out[target] = stats
		}
	}
	return out
}

// SortedTargets returns the target keys of an aggregate map in stable
// order for rendering.
func SortedTargets(all map[string]*TargetStats) []string {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collect(samples []monitor.Sample, get func(monitor.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = get(s)
	}
	return out
}

// collectInt extracts an optional int series. ok is false when no
// sample carried the field or every value was zero; such a group is
// left out of the aggregate entirely.
func collectInt(samples []monitor.Sample, get func(monitor.Sample) *int) ([]float64, bool) {
	out := make([]float64, len(samples))
	present, nonzero := false, false
	for i, s := range samples {
		if p := get(s); p != nil {
			present = true
			out[i] = float64(*p)
			if *p != 0 {
				nonzero = true
			}
		}
	}
	return out, present && nonzero
}

func collectInt64(samples []monitor.Sample, get func(monitor.Sample) *int64) ([]float64, bool) {
	out := make([]float64, len(samples))
	present, nonzero := false, false
	for i, s := range samples {
		if p := get(s); p != nil {
			present = true
			out[i] = float64(*p)
			if *p != 0 {
				nonzero = true
			}
		}
	}
	return out, present && nonzero
}

// summarize computes the four summary values over data. Standard
// deviation uses the sample formula (n-1) and is zero for fewer than
// two points. All summary values round to two decimals; the raw data
// is kept as-is.
func summarize(data []float64) Metric {
	m := Metric{Data: data}
	if len(data) == 0 {
		return m
	}

	min, max, sum := data[0], data[0], 0.0
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(data))

	std := 0.0
	if len(data) >= 2 {
		var ss float64
		for _, v := range data {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(data)-1))
	}

	m.Avg = round2(mean)
	m.Min = round2(min)
	m.Max = round2(max)
	m.Std = round2(std)
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
