package display

import (
	"strings"
	"testing"

	"github.com/7c/procmon/internal/monitor"
	"github.com/7c/procmon/internal/stats"
)

func TestTableRender(t *testing.T) {
	var buf strings.Builder
	tbl := NewTable("A", "B")
	tbl.AddRow("one", "two")
	tbl.Render(&buf)

	out := buf.String()
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("missing cell contents: %s", out)
	}
	if !strings.Contains(out, "┌") || !strings.Contains(out, "└") {
		t.Errorf("missing borders: %s", out)
	}
}

func TestRenderCycleShowsDashesForMissingTarget(t *testing.T) {
	var buf strings.Builder
	batch := map[string]monitor.Sample{
		"nginx": {TargetName: "nginx", PID: 100, CPUPercent: 2.5, MemoryMB: 44},
		"ghost": {TargetName: "ghost"},
	}
	RenderCycle(&buf, 3, []string{"nginx", "ghost"}, batch, monitor.Metrics{})

	out := buf.String()
	if !strings.Contains(out, "cycle 3") {
		t.Errorf("missing cycle number: %s", out)
	}
	if !strings.Contains(out, "nginx") || !strings.Contains(out, "100") {
		t.Errorf("missing live row: %s", out)
	}
	if !strings.Contains(out, "ghost") {
		t.Errorf("missing zero-sample row: %s", out)
	}
}

func TestRenderCycleOptionalColumns(t *testing.T) {
	var buf strings.Builder
	fd := 12
	batch := map[string]monitor.Sample{
		"nginx": {TargetName: "nginx", PID: 100, FDCount: &fd},
	}

	RenderCycle(&buf, 1, []string{"nginx"}, batch, monitor.Metrics{FileDescriptors: true})
	if !strings.Contains(buf.String(), "FDs") {
		t.Errorf("enabled metric column missing: %s", buf.String())
	}

	buf.Reset()
	RenderCycle(&buf, 1, []string{"nginx"}, batch, monitor.Metrics{})
	if strings.Contains(buf.String(), "FDs") {
		t.Errorf("disabled metric column present: %s", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf strings.Builder
	all := map[string]*stats.TargetStats{
		"nginx": {
			TargetName: "nginx",
			PID:        100,
			DataPoints: 10,
			CPU:        stats.Metric{Avg: 2.5, Max: 5.1, Std: 0.8},
			MemoryMB:   stats.Metric{Avg: 44.2, Max: 48},
		},
	}
	RenderSummary(&buf, all)

	out := buf.String()
	for _, want := range []string{"nginx", "2.50%", "5.10%", "44.20"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %s", want, out)
		}
	}
}

func TestVisibleLen(t *testing.T) {
	if got := visibleLen(Green("abc")); got != 3 {
		t.Errorf("visibleLen = %d, want 3", got)
	}
	if got := visibleLen("plain"); got != 5 {
		t.Errorf("visibleLen = %d, want 5", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not truncate: %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(512); got != "512B" {
		t.Errorf("FormatBytes(512) = %q", got)
	}
	if got := FormatBytes(2048); got != "2.0K" {
		t.Errorf("FormatBytes(2048) = %q", got)
	}
	if got := FormatBytes(3 * 1024 * 1024); got != "3.0M" {
		t.Errorf("FormatBytes(3M) = %q", got)
	}
}

func TestCPUColorThresholds(t *testing.T) {
	if !strings.Contains(CPUColor(0.5, "x"), green) {
		t.Error("cpu under 1%% should be green")
	}
	if !strings.Contains(CPUColor(3, "x"), yellow) {
		t.Error("cpu under 5%% should be yellow")
	}
	if !strings.Contains(CPUColor(10, "x"), red) {
		t.Error("cpu above 5%% should be red")
	}
}

func TestMemColorThresholds(t *testing.T) {
	if !strings.Contains(MemColor(10, "x"), green) {
		t.Error("mem under 50MB should be green")
	}
	if !strings.Contains(MemColor(100, "x"), yellow) {
		t.Error("mem under 200MB should be yellow")
	}
	if !strings.Contains(MemColor(500, "x"), red) {
		t.Error("mem above 200MB should be red")
	}
}
