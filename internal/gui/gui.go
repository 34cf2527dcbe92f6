package gui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/7c/procmon/internal/display"
	"github.com/7c/procmon/internal/monitor"
)

// chartMetric selects which series the chart pane plots.
type chartMetric int

const (
	chartCPU chartMetric = iota
	chartMemoryMB
	chartFDs
)

// model is the Bubble Tea model for the live monitoring dashboard.
type model struct {
	sampler     *monitor.Sampler
	history     *monitor.History
	targets     []string
	metrics     monitor.Metrics
	refreshRate time.Duration

	selected int
	chart    chartMetric

	started time.Time

	width  int
	height int
}

// tickMsg fires on every refresh interval.
type tickMsg time.Time

// Run starts the Bubble Tea dashboard. It returns when the user quits
// or the sampler finishes on its own. Quitting stops the sampler.
func Run(sampler *monitor.Sampler, history *monitor.History, targets []string, metrics monitor.Metrics, refreshRate time.Duration) error {
	m := model{
		sampler:     sampler,
		history:     history,
		targets:     targets,
		metrics:     metrics,
		refreshRate: refreshRate,
		started:     time.Now(),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	sampler.Stop()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.refreshRate), tea.EnterAltScreen)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// The sampler reaching its duration ends the dashboard too.
		select {
		case <-m.sampler.Done():
			return m, tea.Quit
		default:
		}
		return m, tickCmd(m.refreshRate)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.targets)-1 {
			m.selected++
		}

	case "c":
		m.chart = m.nextChart()
	}

	return m, nil
}

func (m model) nextChart() chartMetric {
	switch m.chart {
	case chartCPU:
		return chartMemoryMB
	case chartMemoryMB:
		if m.metrics.FileDescriptors {
			return chartFDs
		}
		return chartCPU
	default:
		return chartCPU
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := titleStyle.Render(fmt.Sprintf(
		"procmon — %d targets — running %s",
		len(m.targets), time.Since(m.started).Round(time.Second),
	))
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.renderTable())
	b.WriteString("\n")

	b.WriteString(m.renderChart())
	b.WriteString("\n")

	help := helpStyle.Render("[↑↓] select target  [c] cycle chart metric  [q] quit and finish")
	b.WriteString(help)

	return b.String()
}

// renderTable renders the latest sample per target as an aligned table.
func (m model) renderTable() string {
	headers := []string{"Target", "PID", "CPU", "Mem%", "Mem MB", "Samples"}
	if m.metrics.FileDescriptors {
		headers = append(headers, "FDs")
	}
	if m.metrics.ThreadCount {
		headers = append(headers, "Threads")
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	type rowData struct {
		cols []string
		live bool
	}

	var rows []rowData
	for _, target := range m.targets {
		recent := m.history.Recent(target)
		latest, ok := m.history.Latest(target)

		cols := []string{target, "-", "-", "-", "-", fmt.Sprintf("%d", len(recent))}
		live := false
		if ok && !latest.Zero() {
			live = true
			cols = []string{
				latest.TargetName,
				fmt.Sprintf("%d", latest.PID),
				fmt.Sprintf("%.1f%%", latest.CPUPercent),
				fmt.Sprintf("%.1f%%", latest.MemoryPercent),
				fmt.Sprintf("%.1f", latest.MemoryMB),
				fmt.Sprintf("%d", len(recent)),
			}
		}
		if m.metrics.FileDescriptors {
			v := "-"
			if ok && latest.FDCount != nil {
				v = fmt.Sprintf("%d", *latest.FDCount)
			}
			cols = append(cols, v)
		}
		if m.metrics.ThreadCount {
			v := "-"
			if ok && latest.ThreadCount != nil {
				v = fmt.Sprintf("%d", *latest.ThreadCount)
			}
			cols = append(cols, v)
		}

		for i, c := range cols {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
		rows = append(rows, rowData{cols: cols, live: live})
	}

	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(" Targets") + "\n")

	fmtRow := func(cols []string) string {
		var parts []string
		for i, c := range cols {
			parts = append(parts, fmt.Sprintf("%-*s", widths[i], c))
		}
		return strings.Join(parts, "  ")
	}

	headerRow := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render(fmtRow(headers))
	sb.WriteString(" " + headerRow + "\n")

	totalWidth := 0
	for _, w := range widths {
		totalWidth += w
	}
	totalWidth += (len(widths) - 1) * 2
	sb.WriteString(" " + lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render(strings.Repeat("─", totalWidth)) + "\n")

	for i, row := range rows {
		line := fmtRow(row.cols)
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case row.live:
			line = liveStyle.Render(line)
		default:
			line = missingStyle.Render(line)
		}
		sb.WriteString(" " + line + "\n")
	}

	return sb.String()
}

// renderChart plots the selected target's recent series.
func (m model) renderChart() string {
	if m.selected >= len(m.targets) {
		return ""
	}
	target := m.targets[m.selected]
	recent := m.history.Recent(target)

	var points []display.ChartPoint
	for _, s := range recent {
		v := 0.0
		switch m.chart {
		case chartCPU:
			v = s.CPUPercent
		case chartMemoryMB:
			v = s.MemoryMB
		case chartFDs:
			if s.FDCount != nil {
				v = float64(*s.FDCount)
			}
		}
		points = append(points, display.ChartPoint{Time: s.Timestamp.Unix(), Value: v})
	}

	title := target
	var yFmt func(float64) string
	switch m.chart {
	case chartCPU:
		title += " — CPU"
		yFmt = display.FormatCPUAxis
	case chartMemoryMB:
		title += " — Memory"
		yFmt = display.FormatMBAxis
	case chartFDs:
		title += " — File descriptors"
		yFmt = display.FormatCountAxis
	}

	if len(points) < 2 {
		return chartStyle.Render(helpStyle.Render("collecting " + title + " ..."))
	}

	chartWidth := m.width - 20
	if chartWidth < 30 {
		chartWidth = 30
	}
	chartHeight := m.height - len(m.targets) - 14
	if chartHeight < 5 {
		chartHeight = 5
	}
	if chartHeight > 15 {
		chartHeight = 15
	}

	var buf strings.Builder
	display.RenderChart(&buf, display.ChartConfig{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		YFormatter: yFmt,
	}, []display.ChartSeries{{Name: target, Color: display.CGreen, Points: points}})

	return chartStyle.Render(strings.TrimRight(buf.String(), "\n"))
}
