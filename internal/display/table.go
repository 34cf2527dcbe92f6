package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/7c/procmon/internal/monitor"
	"github.com/7c/procmon/internal/stats"
)

// Table renders bordered tables for CLI output.
type Table struct {
	headers []string
	rows    [][]string // raw values (no color) for width calculation
	colored [][]string // colored values for rendering
	widths  []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row to the table. raw values are used for width; colored for display.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cols)
	t.colored = append(t.colored, cols) // default: same as raw
}

// AddColoredRow adds a row with separate raw (for widths) and colored (for display) values.
func (t *Table) AddColoredRow(raw []string, colored []string) {
	for i, c := range raw {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, raw)
	t.colored = append(t.colored, colored)
}

// Render writes the table to the given writer with dim borders and bold headers.
func (t *Table) Render(w io.Writer) {
	if len(t.rows) == 0 && len(t.headers) == 0 {
		return
	}
	t.line(w, "┌", "┬", "┐")
	t.headerRow(w)
	t.line(w, "├", "┼", "┤")
	for i := range t.rows {
		t.coloredRow(w, t.rows[i], t.colored[i])
	}
	t.line(w, "└", "┴", "┘")
}

func (t *Table) line(w io.Writer, left, mid, right string) {
	fmt.Fprint(w, dim+left)
	for i, width := range t.widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			fmt.Fprint(w, mid)
		}
	}
	fmt.Fprintln(w, right+reset)
}

func (t *Table) headerRow(w io.Writer) {
	fmt.Fprint(w, dim+"│"+reset)
	for i, width := range t.widths {
		h := ""
		if i < len(t.headers) {
			h = t.headers[i]
		}
		fmt.Fprintf(w, " "+bold+"%-*s"+reset+" "+dim+"│"+reset, width, h)
	}
	fmt.Fprintln(w)
}

func (t *Table) coloredRow(w io.Writer, rawCols, colorCols []string) {
	fmt.Fprint(w, dim+"│"+reset)
	for i, width := range t.widths {
		raw := ""
		col := ""
		if i < len(rawCols) {
			raw = rawCols[i]
		}
		if i < len(colorCols) {
			col = colorCols[i]
		}
		// Pad based on raw (visible) length
		padding := width - len(raw)
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, " %s%*s "+dim+"│"+reset, col, padding, "")
	}
	fmt.Fprintln(w)
}

// RenderCycle renders one sampling cycle as a table. Targets that could
// not be found this cycle show dimmed dashes. Optional metric columns
// appear only when enabled for the session.
func RenderCycle(w io.Writer, cycle int, targets []string, batch map[string]monitor.Sample, metrics monitor.Metrics) {
	fmt.Fprintf(w, "%s cycle %d\n", Dim("▸"), cycle)

	headers := []string{"Target", "PID", "CPU", "Mem%", "Mem MB"}
	if metrics.FileDescriptors {
		headers = append(headers, "FDs")
	}
	if metrics.ThreadCount {
		headers = append(headers, "Threads")
	}
	if metrics.DiskIO {
		headers = append(headers, "Disk R", "Disk W")
	}
	if metrics.ContextSwitches {
		headers = append(headers, "Ctx V", "Ctx I")
	}
	tbl := NewTable(headers...)

	for _, target := range targets {
		sample, ok := batch[target]
		if !ok || sample.Zero() {
			name := target
			if ok {
				name = sample.TargetName
			}
			raw := []string{name, "-", "-", "-", "-"}
			colored := []string{Bold(name), Dim("-"), Dim("-"), Dim("-"), Dim("-")}
			for len(raw) < len(headers) {
				raw = append(raw, "-")
				colored = append(colored, Dim("-"))
			}
			tbl.AddColoredRow(raw, colored)
			continue
		}

		rawCPU := fmt.Sprintf("%.1f%%", sample.CPUPercent)
		rawMem := fmt.Sprintf("%.1f%%", sample.MemoryPercent)
		rawMB := fmt.Sprintf("%.1f", sample.MemoryMB)
		raw := []string{sample.TargetName, fmt.Sprintf("%d", sample.PID), rawCPU, rawMem, rawMB}
		colored := []string{
			Bold(sample.TargetName),
			fmt.Sprintf("%d", sample.PID),
			CPUColor(sample.CPUPercent, rawCPU),
			rawMem,
			MemColor(sample.MemoryMB, rawMB),
		}

		if metrics.FileDescriptors {
			raw = append(raw, optInt(sample.FDCount))
			colored = append(colored, optInt(sample.FDCount))
		}
		if metrics.ThreadCount {
			raw = append(raw, optInt(sample.ThreadCount))
			colored = append(colored, optInt(sample.ThreadCount))
		}
		if metrics.DiskIO {
			raw = append(raw, optBytes(sample.DiskReadBytes), optBytes(sample.DiskWriteBytes))
			colored = append(colored, optBytes(sample.DiskReadBytes), optBytes(sample.DiskWriteBytes))
		}
		if metrics.ContextSwitches {
			raw = append(raw, optInt64(sample.VoluntarySwitches), optInt64(sample.InvolSwitches))
			colored = append(colored, optInt64(sample.VoluntarySwitches), optInt64(sample.InvolSwitches))
		}

		tbl.AddColoredRow(raw, colored)
	}
	tbl.Render(w)
}

// RenderSummary renders the end-of-session aggregate table, one row per
// target, sorted by target key.
func RenderSummary(w io.Writer, all map[string]*stats.TargetStats) {
	fmt.Fprintln(w, Bold("Session summary"))
	tbl := NewTable("Target", "PID", "Samples", "CPU avg", "CPU max", "CPU std", "Mem avg MB", "Mem max MB")

	for _, target := range stats.SortedTargets(all) {
		ts := all[target]
		rawAvg := fmt.Sprintf("%.2f%%", ts.CPU.Avg)
		rawMax := fmt.Sprintf("%.2f%%", ts.CPU.Max)
		rawMemAvg := fmt.Sprintf("%.2f", ts.MemoryMB.Avg)
		rawMemMax := fmt.Sprintf("%.2f", ts.MemoryMB.Max)

		raw := []string{
			ts.TargetName,
			fmt.Sprintf("%d", ts.PID),
			fmt.Sprintf("%d", ts.DataPoints),
			rawAvg, rawMax,
			fmt.Sprintf("%.2f", ts.CPU.Std),
			rawMemAvg, rawMemMax,
		}
		colored := []string{
			Bold(ts.TargetName),
			fmt.Sprintf("%d", ts.PID),
			fmt.Sprintf("%d", ts.DataPoints),
			CPUColor(ts.CPU.Avg, rawAvg),
			CPUColor(ts.CPU.Max, rawMax),
			fmt.Sprintf("%.2f", ts.CPU.Std),
			MemColor(ts.MemoryMB.Avg, rawMemAvg),
			MemColor(ts.MemoryMB.Max, rawMemMax),
		}
		tbl.AddColoredRow(raw, colored)
	}
	tbl.Render(w)
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func optInt64(p *int64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

func optBytes(p *int64) string {
	if p == nil {
		return "-"
	}
	return FormatBytes(uint64(*p))
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(b)/float64(div), "KMGTPE"[exp])
}
