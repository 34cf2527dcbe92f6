package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/7c/procmon/internal/monitor"
	"github.com/7c/procmon/internal/stats"
)

// SessionInfo describes the monitoring run a report covers.
type SessionInfo struct {
	Targets  []string
	Interval time.Duration
	Duration time.Duration // 0 = until interrupted
	Metrics  monitor.Metrics
	Started  time.Time
	Ended    time.Time
	DataFile string // relative name of the saved data file, if any
}

// ErrNoData is returned when a report is requested for a session that
// collected nothing.
var ErrNoData = errors.New("no samples collected, nothing to report")

// WriteFile generates the markdown report into dir/performance_report.md.
func WriteFile(dir string, info SessionInfo, all map[string]*stats.TargetStats) (string, error) {
	path := filepath.Join(dir, "performance_report.md")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Generate(f, info, all); err != nil {
		return "", err
	}
	return path, nil
}

// Generate writes the markdown report for a finished session.
func Generate(w io.Writer, info SessionInfo, all map[string]*stats.TargetStats) error {
	if len(all) == 0 {
		return ErrNoData
	}

	fmt.Fprintln(w, "# Process Monitoring Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)

	writeOverview(w, info, all)
	writeSummaryTable(w, info, all)
	for _, target := range stats.SortedTargets(all) {
		writeTargetDetail(w, all[target], info.Metrics)
	}
	writeAppendix(w, info)
	return nil
}

func writeOverview(w io.Writer, info SessionInfo, all map[string]*stats.TargetStats) {
	fmt.Fprintln(w, "## Overview")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Targets: %s\n", strings.Join(info.Targets, ", "))
	fmt.Fprintf(w, "- Interval: %s\n", info.Interval)
	if info.Duration > 0 {
		fmt.Fprintf(w, "- Planned duration: %s\n", info.Duration)
	} else {
		fmt.Fprintln(w, "- Planned duration: until interrupted")
	}
	if !info.Started.IsZero() {
		fmt.Fprintf(w, "- Started: %s\n", info.Started.Format(monitor.TimeLayout))
	}
	if !info.Ended.IsZero() {
		fmt.Fprintf(w, "- Ended: %s\n", info.Ended.Format(monitor.TimeLayout))
	}

	var enabled []string
	if info.Metrics.FileDescriptors {
		enabled = append(enabled, "file descriptors")
	}
	if info.Metrics.ThreadCount {
		enabled = append(enabled, "threads")
	}
	if info.Metrics.ContextSwitches {
		enabled = append(enabled, "context switches")
	}
	if info.Metrics.DiskIO {
		enabled = append(enabled, "disk io")
	}
	if len(enabled) > 0 {
		fmt.Fprintf(w, "- Extra metrics: %s\n", strings.Join(enabled, ", "))
	}
	fmt.Fprintln(w)
}

func writeSummaryTable(w io.Writer, info SessionInfo, all map[string]*stats.TargetStats) {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Target | PID | Samples | CPU avg | CPU max | Mem avg MB | Mem max MB |")
	fmt.Fprintln(w, "|--------|-----|---------|---------|---------|------------|------------|")
	for _, target := range stats.SortedTargets(all) {
		ts := all[target]
		fmt.Fprintf(w, "| %s | %d | %d | %.2f%% | %.2f%% | %.2f | %.2f |\n",
			ts.TargetName, ts.PID, ts.DataPoints,
			ts.CPU.Avg, ts.CPU.Max, ts.MemoryMB.Avg, ts.MemoryMB.Max)
	}
	fmt.Fprintln(w)
}

func writeTargetDetail(w io.Writer, ts *stats.TargetStats, metrics monitor.Metrics) {
	fmt.Fprintf(w, "## %s\n", ts.TargetName)
	fmt.Fprintln(w)
	if ts.Command != "" {
		fmt.Fprintf(w, "- Command: `%s`\n", ts.Command)
	}
	if ts.Args != "" {
		fmt.Fprintf(w, "- Args: `%s`\n", ts.Args)
	}
	fmt.Fprintf(w, "- PID: %d\n", ts.PID)
	fmt.Fprintf(w, "- Data points: %d over %.0fs\n", ts.DataPoints, ts.TestDuration)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Metric | Avg | Min | Max | Std |")
	fmt.Fprintln(w, "|--------|-----|-----|-----|-----|")
	writeMetricRow(w, "CPU %", ts.CPU)
	writeMetricRow(w, "Memory %", ts.MemoryPercent)
	writeMetricRow(w, "Memory MB", ts.MemoryMB)
	writeMetricRow(w, "RSS KB", ts.RSSKB)
	writeMetricRow(w, "VSZ KB", ts.VSZKB)
	if ts.FDCount != nil {
		writeMetricRow(w, "File descriptors", *ts.FDCount)
	}
	if ts.ThreadCount != nil {
		writeMetricRow(w, "Threads", *ts.ThreadCount)
	}
	if ts.ContextSwitches != nil {
		writeMetricRow(w, "Voluntary switches", ts.ContextSwitches.Voluntary)
		writeMetricRow(w, "Involuntary switches", ts.ContextSwitches.Involuntary)
	}
	if ts.DiskIO != nil {
		writeMetricRow(w, "Disk read bytes", ts.DiskIO.ReadBytes)
		writeMetricRow(w, "Disk write bytes", ts.DiskIO.WriteBytes)
	}
	if ts.NetworkIO != nil {
		writeMetricRow(w, "Network rx bytes", ts.NetworkIO.RxBytes)
		writeMetricRow(w, "Network tx bytes", ts.NetworkIO.TxBytes)
	}
	fmt.Fprintln(w)

	writeVerdicts(w, ts)
	fmt.Fprintln(w)
}

func writeMetricRow(w io.Writer, name string, m stats.Metric) {
	fmt.Fprintf(w, "| %s | %.2f | %.2f | %.2f | %.2f |\n", name, m.Avg, m.Min, m.Max, m.Std)
}

// writeVerdicts renders the fixed-threshold assessment: CPU averages
// under 1% are low and under 5% moderate; memory averages under 50 MB
// are low and under 200 MB moderate; a zero standard deviation on
// memory means a stable footprint.
func writeVerdicts(w io.Writer, ts *stats.TargetStats) {
	fmt.Fprintln(w, "### Assessment")
	fmt.Fprintln(w)

	switch {
	case ts.CPU.Avg < 1:
		fmt.Fprintf(w, "- CPU usage is low (avg %.2f%%).\n", ts.CPU.Avg)
	case ts.CPU.Avg < 5:
		fmt.Fprintf(w, "- CPU usage is moderate (avg %.2f%%).\n", ts.CPU.Avg)
	default:
		fmt.Fprintf(w, "- CPU usage is high (avg %.2f%%), worth a closer look.\n", ts.CPU.Avg)
	}

	switch {
	case ts.MemoryMB.Avg < 50:
		fmt.Fprintf(w, "- Memory usage is low (avg %.2f MB).\n", ts.MemoryMB.Avg)
	case ts.MemoryMB.Avg < 200:
		fmt.Fprintf(w, "- Memory usage is moderate (avg %.2f MB).\n", ts.MemoryMB.Avg)
	default:
		fmt.Fprintf(w, "- Memory usage is high (avg %.2f MB), worth a closer look.\n", ts.MemoryMB.Avg)
	}

	if ts.MemoryMB.Std == 0 {
		fmt.Fprintln(w, "- Memory footprint was stable across the session.")
	} else {
		fmt.Fprintf(w, "- Memory footprint fluctuated (std %.2f MB).\n", ts.MemoryMB.Std)
	}
}

func writeAppendix(w io.Writer, info SessionInfo) {
	fmt.Fprintln(w, "## Appendix")
	fmt.Fprintln(w)
	if info.DataFile != "" {
		fmt.Fprintf(w, "Raw samples: `%s`\n", info.DataFile)
	} else {
		fmt.Fprintln(w, "Raw samples were not saved for this session.")
	}
}
