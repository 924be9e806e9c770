package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/danmuck/cradlectl/internal/busclient"
	"github.com/danmuck/cradlectl/internal/controller"
	"github.com/danmuck/cradlectl/internal/hud"
	"github.com/danmuck/cradlectl/internal/logging"
	"github.com/danmuck/cradlectl/internal/platform"
	"github.com/danmuck/cradlectl/internal/protocol"
	"github.com/danmuck/cradlectl/internal/protocol/frame"
	"github.com/danmuck/cradlectl/internal/simbus"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to TOML config file")
		mode       = pflag.String("mode", "", "run mode: primary or diagnostic")
		device     = pflag.String("device", "", "serial device node for the shared bus")
		sim        = pflag.Bool("sim", false, "run against simulated peers instead of hardware")
		status     = pflag.String("status", "", "status surface: log or term")
	)
	pflag.Parse()

	logging.ConfigureRuntime()
	log := logging.Component("decisionctl")

	cfg := defaultAppConfig()
	if *configPath != "" {
		loaded, err := loadAppConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if pflag.CommandLine.Changed("mode") {
		cfg.Service.Mode = controller.Mode(*mode)
	}
	if pflag.CommandLine.Changed("device") {
		cfg.Device = *device
	}
	if pflag.CommandLine.Changed("sim") {
		cfg.Sim = *sim
	}
	if pflag.CommandLine.Changed("status") {
		cfg.Status = *status
	}

	port, cleanup, err := openPort(cfg, log)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	clock := platform.NewSystemClock()
	codec := frame.NewCodec(port, clock, protocol.PeerDecision, frame.DefaultTimeouts(), log)
	bus := busclient.New(codec, clock, protocol.PeerDecision, cfg.Service.Bus, log)

	col := controller.Collaborators{
		Bus:       bus,
		Clock:     clock,
		Status:    statusSink(cfg),
		Restarter: platform.ExecRestarter{},
	}
	svc := controller.NewServiceWithConfig(cfg.Service, col, log)
	if err := svc.Run(); err != nil {
		fatal(err)
	}
}

// openPort attaches the bus: an in-memory pipe with simulated peers, or
// the serial device node wired to the real ones.
func openPort(cfg appConfig, log zerolog.Logger) (platform.Port, func(), error) {
	if cfg.Sim {
		near, far := frame.NewPipe().Ends()
		sim := simbus.New(far, logging.Component("simbus"))
		sim.SetSootheStep(12)
		ctx, cancel := context.WithCancel(context.Background())
		go sim.Run(ctx)
		log.Info().Msg("simulated peers attached")
		return near, cancel, nil
	}

	dev, err := platform.OpenDevicePort(cfg.Device)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("device", cfg.Device).Msg("bus device open")
	return dev, func() { _ = dev.Close() }, nil
}

// statusSink picks the status surface. The diagnostic screen owns the
// terminal, so it always renders through the log instead of competing
// with the TUI for stdout.
func statusSink(cfg appConfig) platform.StatusSink {
	if cfg.Status == "term" && cfg.Service.Mode == controller.ModePrimary {
		return hud.NewTermSink(os.Stdout)
	}
	return hud.NewLogSink(logging.Component("hud"))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "decisionctl: %v\n", err)
	os.Exit(1)
}
