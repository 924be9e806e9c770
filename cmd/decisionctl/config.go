package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/cradlectl/internal/controller"
)

type fileConfig struct {
	Mode   string `toml:"mode"`
	Device string `toml:"device"`
	Sim    bool   `toml:"sim"`
	Status string `toml:"status"`

	HeartbeatDelay   string `toml:"heartbeat_delay"`
	CryingDelay      string `toml:"crying_delay"`
	ConvergenceDelay string `toml:"convergence_delay"`
	VitalsPoll       string `toml:"vitals_poll"`

	HeartbeatWindow string `toml:"heartbeat_window"`
	CryingWindow    string `toml:"crying_window"`
	BootPingBudget  string `toml:"boot_ping_budget"`
	BootPingRetry   string `toml:"boot_ping_retry"`

	PanicJumpBPM int `toml:"panic_jump_bpm"`
	RestartLine  int `toml:"restart_line"`
}

type appConfig struct {
	Service controller.ServiceConfig
	Device  string
	Sim     bool
	Status  string
}

func defaultAppConfig() appConfig {
	return appConfig{
		Service: controller.DefaultServiceConfig(),
		Device:  "/dev/ttyS1",
		Status:  "log",
	}
}

func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load decisionctl config: %w", err)
	}

	if meta.IsDefined("mode") {
		cfg.Service.Mode = controller.Mode(strings.TrimSpace(raw.Mode))
	}
	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("sim") {
		cfg.Sim = raw.Sim
	}
	if meta.IsDefined("status") {
		cfg.Status = strings.TrimSpace(raw.Status)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"heartbeat_delay", raw.HeartbeatDelay, &cfg.Service.Cadence.HeartbeatDelay},
		{"crying_delay", raw.CryingDelay, &cfg.Service.Cadence.CryingDelay},
		{"convergence_delay", raw.ConvergenceDelay, &cfg.Service.Cadence.ConvergenceDelay},
		{"vitals_poll", raw.VitalsPoll, &cfg.Service.Cadence.VitalsPoll},
		{"heartbeat_window", raw.HeartbeatWindow, &cfg.Service.Bus.HeartbeatWindow},
		{"crying_window", raw.CryingWindow, &cfg.Service.Bus.CryingWindow},
		{"boot_ping_budget", raw.BootPingBudget, &cfg.Service.Bus.BootPingBudget},
		{"boot_ping_retry", raw.BootPingRetry, &cfg.Service.Bus.BootPingRetry},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if meta.IsDefined("panic_jump_bpm") {
		cfg.Service.Engine.PanicJumpBPM = raw.PanicJumpBPM
	}
	if meta.IsDefined("restart_line") {
		cfg.Service.RestartLine = raw.RestartLine
	}

	return cfg, nil
}
