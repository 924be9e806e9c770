// Package controller owns the decision node's runtime: boot pings and the
// vitals warm-up, the single control loop that polls the sensor peers,
// steps the decision engine on its cadence, and mirrors state to the
// status surface.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/busclient"
	"github.com/danmuck/cradlectl/internal/engine"
	"github.com/danmuck/cradlectl/internal/hud"
	"github.com/danmuck/cradlectl/internal/platform"
	"github.com/danmuck/cradlectl/internal/protocol"
)

var (
	ErrInvalidMode = errors.New("controller: invalid mode")
	ErrBusRequired = errors.New("controller: bus client required")
)

// Mode selects the vitals source for the control loop.
type Mode string

const (
	// ModePrimary polls the heartbeat peer on the bus; the cry level is
	// pinned to zero so only heart rate steers the engine.
	ModePrimary Mode = "primary"
	// ModeDiagnostic runs the interactive manual-vitals screen instead of
	// the sensor peers; motor commands still go out on the bus.
	ModeDiagnostic Mode = "diagnostic"
)

// ServiceConfig configures the decision node runtime.
type ServiceConfig struct {
	Mode    Mode
	Engine  engine.Config
	Cadence engine.CadenceConfig
	Bus     busclient.Config
	// Warm-up: after boot pings, poll the heartbeat peer until a nonzero
	// sample arrives, at most WarmupAttempts times WarmupDelay.
	WarmupAttempts int
	WarmupDelay    time.Duration
	// RestartLine is the digital input polled for a restart request.
	RestartLine int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Mode:           ModePrimary,
		Engine:         engine.DefaultConfig(),
		Cadence:        engine.DefaultCadenceConfig(),
		Bus:            busclient.DefaultConfig(),
		WarmupAttempts: 50,
		WarmupDelay:    20 * time.Millisecond,
		RestartLine:    3,
	}
}

// BusClient is the request-reply surface the loop needs from the bus.
// *busclient.Client satisfies it.
type BusClient interface {
	BootPing(peer protocol.PeerID) bool
	RequestHeartbeat() (uint8, error)
	RequestCrying() (uint8, error)
	CommandMotor(amp, freq uint8) error
}

// Collaborators are the platform seams injected into the service. Status,
// Restarter and Input may be nil; Bus and Clock may not.
type Collaborators struct {
	Bus       BusClient
	Clock     platform.Clock
	Status    platform.StatusSink
	Restarter platform.Restarter
	Input     platform.DigitalInput
}

type peerHealth struct {
	heartbeat bool
	crying    bool
	motor     bool
}

// Service runs the decision node lifecycle as a standalone process.
type Service struct {
	cfg ServiceConfig
	col Collaborators
	log zerolog.Logger

	eng   *engine.Engine
	peers peerHealth

	lastBPM    int
	nextStepMS int64
}

func NewServiceWithConfig(cfg ServiceConfig, col Collaborators, log zerolog.Logger) *Service {
	if col.Clock == nil {
		col.Clock = platform.NewSystemClock()
	}
	s := &Service{cfg: cfg, col: col, log: log, lastBPM: -1}
	s.eng = engine.New(cfg.Engine, &motorActuator{svc: s}, col.Clock, log)
	return s
}

// Run blocks until process signal shutdown or a fatal bootstrap error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(); err != nil {
		return err
	}
	return s.serve(ctx)
}

// Engine exposes the decision engine to the diagnostic screen.
func (s *Service) Engine() *engine.Engine { return s.eng }

// bootstrap pings every peer once, records liveness for the session, and
// warms up the first vitals sample before the loop starts.
func (s *Service) bootstrap() error {
	switch s.cfg.Mode {
	case ModePrimary, ModeDiagnostic:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, s.cfg.Mode)
	}
	if s.col.Bus == nil {
		return ErrBusRequired
	}

	s.peers.heartbeat = s.col.Bus.BootPing(protocol.PeerHeartbeat)
	s.peers.crying = s.col.Bus.BootPing(protocol.PeerCrying)
	s.peers.motor = s.col.Bus.BootPing(protocol.PeerMotor)
	s.renderBusLine()
	s.log.Info().
		Bool("heartbeat", s.peers.heartbeat).
		Bool("crying", s.peers.crying).
		Bool("motor", s.peers.motor).
		Msg("boot pings done")

	if s.cfg.Mode == ModePrimary && !s.peers.heartbeat {
		// Without the heartbeat peer the primary loop has no signal to
		// steer by; fail loudly and let the supervisor restart us.
		s.render(hud.LineBPM, "no heartbeat peer", platform.SevError)
		return fmt.Errorf("%w: heartbeat", protocol.ErrPeerMissing)
	}

	if s.cfg.Mode == ModePrimary {
		s.warmup()
	}

	s.eng.Start()
	s.nextStepMS = s.col.Clock.NowMillis()
	return nil
}

// warmup polls for the first nonzero bpm sample so the engine does not
// start stepping on an invalid baseline.
func (s *Service) warmup() {
	for i := 0; i < s.cfg.WarmupAttempts; i++ {
		if v, err := s.col.Bus.RequestHeartbeat(); err == nil && v > 0 {
			s.lastBPM = int(v)
			s.log.Info().Int("bpm", s.lastBPM).Int("polls", i+1).Msg("vitals warm-up done")
			return
		}
		s.col.Clock.Sleep(s.cfg.WarmupDelay)
	}
	s.log.Warn().Int("attempts", s.cfg.WarmupAttempts).Msg("vitals warm-up elapsed without a sample")
}

func (s *Service) serve(ctx context.Context) error {
	if s.cfg.Mode == ModeDiagnostic {
		return s.serveDiagnostic(ctx)
	}
	s.log.Info().Msg("primary loop running")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("shutdown")
			return nil
		default:
		}
		if s.tick() {
			return nil
		}
		s.col.Clock.Sleep(s.cfg.Cadence.VitalsPoll)
	}
}

// tick is one pass of the primary loop: restart check, heartbeat poll,
// cadenced engine step, status refresh. Returns true when a restart was
// requested and the loop must stop.
func (s *Service) tick() bool {
	if s.restartRequested() {
		return true
	}

	if s.peers.heartbeat {
		if v, err := s.col.Bus.RequestHeartbeat(); err == nil {
			s.lastBPM = int(v)
			s.render(hud.LineBPM, fmt.Sprintf("bpm %d", s.lastBPM), platform.SevInfo)
		} else {
			s.render(hud.LineBPM, fmt.Sprintf("bpm %d (stale)", s.lastBPM), platform.SevWarn)
		}
	}

	// The primary configuration pins the cry level; mirror it so the
	// status surface shows the full vitals pair.
	cry := 0
	s.render(hud.LineCry, fmt.Sprintf("cry %d", cry), platform.SevInfo)

	now := s.col.Clock.NowMillis()
	if now >= s.nextStepMS && s.lastBPM > 0 {
		rep := s.eng.Step(engine.Vitals{BPM: s.lastBPM, Cry: cry})
		if rep.Err != nil {
			s.log.Error().Err(rep.Err).Msg("engine step")
		}
		s.renderStep(rep)
		s.nextStepMS = now + s.cfg.Cadence.StepDelay(rep.HitWall, rep.Regime).Milliseconds()
	}
	s.renderTimers()
	return false
}

func (s *Service) restartRequested() bool {
	if s.col.Input == nil || !s.col.Input.LineState(s.cfg.RestartLine) {
		return false
	}
	s.log.Info().Int("line", s.cfg.RestartLine).Msg("restart requested")
	if s.col.Restarter != nil {
		s.col.Restarter.Restart()
	}
	return true
}

func (s *Service) renderStep(rep engine.StepReport) {
	s.render(hud.LineCell, rep.Cell.String(), platform.SevInfo)
	s.render(hud.LineRegime, rep.Regime.String(), platform.SevInfo)
	if rep.Panic {
		s.render(hud.LinePanic, "PANIC", platform.SevError)
	} else {
		s.render(hud.LinePanic, "ok", platform.SevInfo)
	}
}

func (s *Service) renderTimers() {
	s.render(hud.LineElapsed, hud.FormatMMSS(s.eng.Elapsed()), platform.SevInfo)
	if calm, ok := s.eng.CalmElapsed(); ok {
		s.render(hud.LineCalm, "calm at "+hud.FormatMMSS(calm), platform.SevGood)
	}
}

func (s *Service) renderBusLine() {
	text := fmt.Sprintf("hb=%s cry=%s motor=%s",
		aliveWord(s.peers.heartbeat), aliveWord(s.peers.crying), aliveWord(s.peers.motor))
	sev := platform.SevGood
	if !s.peers.heartbeat || !s.peers.motor {
		sev = platform.SevWarn
	}
	s.render(hud.LineBus, text, sev)
}

func (s *Service) render(key, text string, sev platform.Severity) {
	if s.col.Status != nil {
		s.col.Status.Render(key, text, sev)
	}
}

func aliveWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "dead"
}
