package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/7c/procmon/internal/config"
	"github.com/7c/procmon/internal/display"
	"github.com/7c/procmon/internal/gui"
	"github.com/7c/procmon/internal/logwriter"
	"github.com/7c/procmon/internal/monitor"
	"github.com/7c/procmon/internal/pstable"
	"github.com/7c/procmon/internal/report"
	"github.com/7c/procmon/internal/stats"
	"github.com/7c/procmon/internal/telemetry"
)

var (
	flagInterval     time.Duration
	flagDuration     time.Duration
	flagEnableFD     bool
	flagEnableThr    bool
	flagEnableCtx    bool
	flagEnableDiskIO bool
	flagSaveData     bool
	flagReport       bool
	flagChart        bool
	flagGUI          bool
	flagReportDir    string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <target> [target...]",
	Short: "Sample resource usage of processes until stopped",
	Long: `Monitor one or more processes by name or PID. Each target is sampled
every interval; names are resolved by exact executable match first, then
command-line prefix. A target that disappears keeps producing zero
samples and is picked up again when it returns.`,
	Example: `  procmon monitor nginx
  procmon monitor nginx redis-server 4242 --interval 2s --duration 5m
  procmon monitor myapp --enable-fd --enable-threads --save-data --report
  procmon monitor myapp --gui`,
	Args: cobra.MinimumNArgs(1),
	Run:  runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVarP(&flagInterval, "interval", "i", 5*time.Second, "sampling interval")
	monitorCmd.Flags().DurationVarP(&flagDuration, "duration", "d", 0, "total duration, 0 = until interrupted")
	monitorCmd.Flags().BoolVar(&flagEnableFD, "enable-fd", false, "collect open file descriptor counts")
	monitorCmd.Flags().BoolVar(&flagEnableThr, "enable-threads", false, "collect thread counts")
	monitorCmd.Flags().BoolVar(&flagEnableCtx, "enable-context-switches", false, "collect context switch counters")
	monitorCmd.Flags().BoolVar(&flagEnableDiskIO, "enable-disk-io", false, "collect disk io counters")
	monitorCmd.Flags().BoolVar(&flagSaveData, "save-data", false, "save raw samples to the session directory")
	monitorCmd.Flags().BoolVar(&flagReport, "report", false, "write a markdown report to the session directory")
	monitorCmd.Flags().BoolVar(&flagChart, "chart", false, "print braille charts after the session")
	monitorCmd.Flags().BoolVar(&flagGUI, "gui", false, "show the live dashboard instead of per-cycle tables")
	monitorCmd.Flags().StringVar(&flagReportDir, "report-dir", "report", "base directory for session artifacts")
}

func runMonitor(cmd *cobra.Command, args []string) {
	targets := args
	metrics := monitor.Metrics{
		FileDescriptors: flagEnableFD,
		ThreadCount:     flagEnableThr,
		ContextSwitches: flagEnableCtx,
		DiskIO:          flagEnableDiskIO,
	}

	configFlag, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(config.Home(), configFlag)
	if err != nil {
		exitError(err.Error())
	}
	resolved, warnings, err := config.Resolve(loaded.Config)
	if err != nil {
		exitError(err.Error())
	}

	// Session directory holds the log and, when requested, data + report.
	started := time.Now()
	sessionDir := ""
	if flagSaveData || flagReport {
		sessionDir, err = report.CreateSessionDir(flagReportDir, started)
		if err != nil {
			exitError(err.Error())
		}
	}

	logClose := setupLogging(sessionDir, resolved)
	defer logClose()
	for _, warning := range warnings {
		slog.Warn(warning)
	}
	if loaded.Path != "" {
		slog.Info("config loaded", "path", loaded.Path)
	}

	var emitter *telemetry.TelegrafEmitter
	if resolved.TelegrafEnabled {
		emitter, err = telemetry.NewTelegrafEmitter(resolved.TelegrafAddr, resolved.TelegrafMeas)
		if err != nil {
			slog.Warn("telegraf disabled", "error", err)
		} else {
			defer emitter.Close()
		}
	}

	store := monitor.NewStore()
	history := monitor.NewHistory()
	sampler := monitor.NewSampler(pstable.NewProvider(), store, targets, metrics)
	sampler.OnCycle(func(cycle int, batch map[string]monitor.Sample) {
		history.Push(batch)
		emitter.EmitCycle(cycle, batch)
		if !flagGUI {
			display.RenderCycle(os.Stdout, cycle, targets, batch, metrics)
		}
	})

	if err := sampler.Start(flagInterval, flagDuration); err != nil {
		exitError(err.Error())
	}
	slog.Info("monitoring started",
		"targets", targets, "interval", flagInterval, "duration", flagDuration)

	if flagGUI {
		if err := gui.Run(sampler, history, targets, metrics, time.Second); err != nil {
			sampler.Stop()
			exitError(err.Error())
		}
	} else {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, display.Dim("stopping..."))
			sampler.Stop()
		case <-sampler.Done():
		}
	}

	finishSession(store, targets, metrics, started, sessionDir)
}

// setupLogging routes slog to stderr and, when a session directory
// exists, to a rotating session.log inside it.
func setupLogging(sessionDir string, resolved *config.Resolved) func() {
	out := io.Writer(os.Stderr)
	closeFn := func() {}

	if sessionDir != "" {
		w, err := logwriter.New(filepath.Join(sessionDir, "session.log"), resolved.LogMaxSize, resolved.LogMaxFiles)
		if err == nil {
			out = io.MultiWriter(os.Stderr, w)
			closeFn = func() { w.Close() }
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, nil)))
	return closeFn
}

func finishSession(store *monitor.Store, targets []string, metrics monitor.Metrics, started time.Time, sessionDir string) {
	series := store.Snapshot()
	all := stats.AnalyzeAll(series)
	if len(all) == 0 {
		exitError("no samples collected")
	}

	if jsonOutput {
		printJSON(all)
	} else {
		fmt.Println()
		display.RenderSummary(os.Stdout, all)
	}

	if flagChart {
		renderSessionCharts(os.Stdout, series)
	}

	info := report.SessionInfo{
		Targets:  targets,
		Interval: flagInterval,
		Duration: flagDuration,
		Metrics:  metrics,
		Started:  started,
		Ended:    time.Now(),
	}

	if flagSaveData && sessionDir != "" {
		dataName := "monitor_data_" + started.Format("20060102_150405") + ".json"
		dataPath := filepath.Join(sessionDir, dataName)
		if err := store.Save(dataPath); err != nil {
			exitError(err.Error())
		}
		info.DataFile = dataName
		fmt.Printf("%s %s\n", display.Dim("data:"), dataPath)
	}

	if flagReport && sessionDir != "" {
		path, err := report.WriteFile(sessionDir, info, all)
		if err != nil {
			exitError(err.Error())
		}
		fmt.Printf("%s %s\n", display.Dim("report:"), path)
	}
}

// renderSessionCharts prints one CPU and one memory chart covering all
// targets with data.
func renderSessionCharts(w io.Writer, series map[string][]monitor.Sample) {
	var cpu, mem []display.ChartSeries
	for _, target := range sortedKeys(series) {
		samples := series[target]
		if len(samples) < 2 {
			continue
		}
		var cpuPts, memPts []display.ChartPoint
		for _, s := range samples {
			cpuPts = append(cpuPts, display.ChartPoint{Time: s.Timestamp.Unix(), Value: s.CPUPercent})
			memPts = append(memPts, display.ChartPoint{Time: s.Timestamp.Unix(), Value: s.MemoryMB})
		}
		cpu = append(cpu, display.ChartSeries{Name: target, Points: cpuPts})
		mem = append(mem, display.ChartSeries{Name: target, Points: memPts})
	}
	if len(cpu) == 0 {
		return
	}
	display.AssignSeriesColors(cpu)
	display.AssignSeriesColors(mem)

	fmt.Fprintln(w)
	display.RenderChart(w, display.ChartConfig{Title: "CPU %", YFormatter: display.FormatCPUAxis}, cpu)
	display.RenderChart(w, display.ChartConfig{Title: "Memory MB", YFormatter: display.FormatMBAxis}, mem)
}
