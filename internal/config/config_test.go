package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procmon.config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFlagFile(t *testing.T) {
	_, err := Load(t.TempDir(), "/nonexistent/procmon.config.json")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoadNoConfigAnywhere(t *testing.T) {
	res, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Config != nil || res.Path != "" {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestLoadFromHome(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "procmon.config.json")
	if err := os.WriteFile(path, []byte(`{"logs":{"max_size":"2M"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Load(home, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != path || res.Source != "found" {
		t.Errorf("path/source = %q/%q", res.Path, res.Source)
	}
}

func TestLoadSyntaxErrorReportsLineCol(t *testing.T) {
	path := writeConfig(t, "{\n  \"logs\": {\n    bad\n}}")
	_, err := Load(t.TempDir(), path)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should carry the line number: %v", err)
	}
}

func TestResolveDefaults(t *testing.T) {
	r, warnings, err := Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if r.LogMaxSize != 1048576 || r.LogMaxFiles != 3 {
		t.Errorf("log defaults = %d/%d", r.LogMaxSize, r.LogMaxFiles)
	}
	if r.TelegrafEnabled {
		t.Error("telegraf should default to disabled")
	}
}

func TestResolveLogsNullWarns(t *testing.T) {
	cfg := &Config{Logs: []byte("null")}
	r, warnings, err := Resolve(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
	if r.LogMaxSize != 1048576 {
		t.Errorf("null logs should fall back to defaults, got %d", r.LogMaxSize)
	}
}

func TestResolveLogsConfigured(t *testing.T) {
	cfg := &Config{Logs: []byte(`{"max_size":"500K","max_files":5}`)}
	r, _, err := Resolve(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.LogMaxSize != 500*1024 || r.LogMaxFiles != 5 {
		t.Errorf("resolved logs = %d/%d", r.LogMaxSize, r.LogMaxFiles)
	}
}

func TestResolveBadMaxSize(t *testing.T) {
	cfg := &Config{Logs: []byte(`{"max_size":"huge"}`)}
	if _, _, err := Resolve(cfg); err == nil {
		t.Error("invalid max_size should be rejected")
	}
}

func TestResolveTelegraf(t *testing.T) {
	cfg := &Config{Telemetry: []byte(`{"telegraf":{"udp":"127.0.0.1:8094"}}`)}
	r, _, err := Resolve(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !r.TelegrafEnabled || r.TelegrafAddr == nil {
		t.Fatal("telegraf should be enabled")
	}
	if r.TelegrafMeas != "procmon" {
		t.Errorf("measurement default = %q", r.TelegrafMeas)
	}
}

func TestResolveTelegrafMissingUDP(t *testing.T) {
	cfg := &Config{Telemetry: []byte(`{"telegraf":{}}`)}
	if _, _, err := Resolve(cfg); err == nil {
		t.Error("telegraf without udp should be rejected")
	}
}

func TestResolveTelemetryNullDisabled(t *testing.T) {
	cfg := &Config{Telemetry: []byte("null")}
	r, _, err := Resolve(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if r.TelegrafEnabled {
		t.Error("null telemetry should disable telegraf")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1M", 1048576, false},
		{"500K", 512000, false},
		{"2g", 2 * 1024 * 1024 * 1024, false},
		{"1024", 1024, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-5M", 0, true},
		{"0", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
