package config

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Resolved holds the fully resolved, validated runtime configuration.
type Resolved struct {
	LogMaxSize  int64
	LogMaxFiles int

	TelegrafEnabled bool
	TelegrafAddr    *net.UDPAddr
	TelegrafMeas    string
}

// Resolve takes a raw Config (may be nil) and returns the validated runtime config.
func Resolve(cfg *Config) (*Resolved, []string, error) {
	r := &Resolved{}
	var warnings []string

	// --- Logs (cannot be disabled, null = defaults + warning) ---
	if cfg == nil || cfg.Logs == nil {
		r.LogMaxSize = 1048576
		r.LogMaxFiles = 3
	} else if isJSONNull(cfg.Logs) {
		warnings = append(warnings, "logs: null treated as defaults (logging cannot be disabled)")
		r.LogMaxSize = 1048576
		r.LogMaxFiles = 3
	} else {
		logs := LogsConfig{MaxSize: "1M", MaxFiles: 3}
		if err := json.Unmarshal(cfg.Logs, &logs); err != nil {
			return nil, nil, fmt.Errorf("logs: %w", err)
		}
		maxSize, err := ParseSize(logs.MaxSize)
		if err != nil {
			return nil, nil, fmt.Errorf("logs.max_size %q - expected format like \"1M\", \"500K\", \"10M\"", logs.MaxSize)
		}
		if logs.MaxFiles < 0 {
			return nil, nil, fmt.Errorf("logs.max_files must be >= 0 (got: %d)", logs.MaxFiles)
		}
		r.LogMaxSize = maxSize
		r.LogMaxFiles = logs.MaxFiles
	}

	// --- Telemetry (absent/null = disabled) ---
	if cfg == nil || cfg.Telemetry == nil || isJSONNull(cfg.Telemetry) {
		r.TelegrafEnabled = false
	} else {
		var tel TelemetryConfig
		if err := json.Unmarshal(cfg.Telemetry, &tel); err != nil {
			return nil, nil, fmt.Errorf("telemetry: %w", err)
		}
		if tel.Telegraf == nil {
			r.TelegrafEnabled = false
		} else {
			if tel.Telegraf.UDP == "" {
				return nil, nil, fmt.Errorf("telemetry.telegraf.udp is required when telegraf is enabled")
			}
			addr, err := net.ResolveUDPAddr("udp", tel.Telegraf.UDP)
			if err != nil {
				return nil, nil, fmt.Errorf("telemetry.telegraf.udp %q - expected \"host:port\"", tel.Telegraf.UDP)
			}
			meas := tel.Telegraf.Measurement
			if meas == "" {
				meas = "procmon"
			}
			r.TelegrafEnabled = true
			r.TelegrafAddr = addr
			r.TelegrafMeas = meas
		}
	}

	return r, warnings, nil
}

// ParseSize parses a human size like "500K", "1M", "10M" or a plain
// byte count into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
