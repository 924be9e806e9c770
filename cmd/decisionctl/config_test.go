package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/cradlectl/internal/controller"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisionctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppConfigOverridesDefinedKeysOnly(t *testing.T) {
	path := writeConfig(t, `
mode = "diagnostic"
sim = true
heartbeat_delay = "9s"
crying_window = "35ms"
panic_jump_bpm = 25
`)

	cfg, err := loadAppConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Service.Mode != controller.ModeDiagnostic {
		t.Fatalf("mode: got %q", cfg.Service.Mode)
	}
	if !cfg.Sim {
		t.Fatalf("sim flag not applied")
	}
	if cfg.Service.Cadence.HeartbeatDelay != 9*time.Second {
		t.Fatalf("heartbeat_delay: got %v", cfg.Service.Cadence.HeartbeatDelay)
	}
	if cfg.Service.Bus.CryingWindow != 35*time.Millisecond {
		t.Fatalf("crying_window: got %v", cfg.Service.Bus.CryingWindow)
	}
	if cfg.Service.Engine.PanicJumpBPM != 25 {
		t.Fatalf("panic_jump_bpm: got %d", cfg.Service.Engine.PanicJumpBPM)
	}

	// Undefined keys keep their defaults.
	def := defaultAppConfig()
	if cfg.Service.Cadence.CryingDelay != def.Service.Cadence.CryingDelay {
		t.Fatalf("crying_delay must keep its default, got %v", cfg.Service.Cadence.CryingDelay)
	}
	if cfg.Device != def.Device {
		t.Fatalf("device must keep its default, got %q", cfg.Device)
	}
}

func TestLoadAppConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `vitals_poll = "fast"`)
	if _, err := loadAppConfig(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	if _, err := loadAppConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
