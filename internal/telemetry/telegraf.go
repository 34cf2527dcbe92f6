package telemetry

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/7c/procmon/internal/monitor"
)

// TelegrafEmitter sends per-cycle samples to Telegraf via UDP in InfluxDB
// line protocol.
type TelegrafEmitter struct {
	conn        *net.UDPConn
	measurement string
	hostname    string
}

// NewTelegrafEmitter creates a new emitter. addr is the resolved UDP address.
func NewTelegrafEmitter(addr *net.UDPAddr, measurement string) (*TelegrafEmitter, error) {
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("telegraf dial: %w", err)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return &TelegrafEmitter{
		conn:        conn,
		measurement: measurement,
		hostname:    hostname,
	}, nil
}

// EmitCycle sends one line per target plus a session summary line.
func (e *TelegrafEmitter) EmitCycle(cycle int, batch map[string]monitor.Sample) {
	if e == nil || e.conn == nil {
		return
	}

	now := time.Now().UnixNano()
	var lines []string

	live := 0
	for _, sample := range batch {
		if !sample.Zero() {
			live++
		}
		lines = append(lines, e.sampleLine(sample, now))
	}

	lines = append(lines, fmt.Sprintf(
		"%s_session,host=%s targets_total=%di,targets_live=%di,cycle=%di %d",
		e.measurement,
		escapeTag(e.hostname),
		len(batch), live, cycle,
		now,
	))

	payload := strings.Join(lines, "\n") + "\n"
	e.conn.Write([]byte(payload)) // fire-and-forget
}

func (e *TelegrafEmitter) sampleLine(s monitor.Sample, now int64) string {
	tags := fmt.Sprintf("%s,host=%s,target=%s",
		e.measurement,
		escapeTag(e.hostname),
		escapeTag(s.TargetName),
	)

	fields := fmt.Sprintf("pid=%di,cpu=%f,memory_mb=%f,rss_kb=%di,vsz_kb=%di,system_load=%f",
		s.PID, s.CPUPercent, s.MemoryMB, s.RSSKB, s.VSZKB, s.SystemLoad)
	if s.FDCount != nil {
		fields += fmt.Sprintf(",fd_count=%di", *s.FDCount)
	}
	if s.ThreadCount != nil {
		fields += fmt.Sprintf(",thread_count=%di", *s.ThreadCount)
	}
	if s.DiskReadBytes != nil {
		fields += fmt.Sprintf(",disk_read_bytes=%di", *s.DiskReadBytes)
	}
	if s.DiskWriteBytes != nil {
		fields += fmt.Sprintf(",disk_write_bytes=%di", *s.DiskWriteBytes)
	}
	if s.VoluntarySwitches != nil {
		fields += fmt.Sprintf(",voluntary_switches=%di", *s.VoluntarySwitches)
	}
	if s.InvolSwitches != nil {
		fields += fmt.Sprintf(",involuntary_switches=%di", *s.InvolSwitches)
	}

	return fmt.Sprintf("%s %s %d", tags, fields, now)
}

// Close closes the UDP connection.
func (e *TelegrafEmitter) Close() {
	if e != nil && e.conn != nil {
		e.conn.Close()
	}
}

// escapeTag escapes special characters in InfluxDB line protocol tag values.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}
