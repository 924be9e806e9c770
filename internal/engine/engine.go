package engine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/platform"
)

// ErrGridInvariant is returned when the idle phase finds no legal untried
// move away from a non-origin cell. Structurally unreachable on a 5x5
// grid with unit moves toward the origin; surfaced so a regression is
// loud instead of silently holding.
var ErrGridInvariant = errors.New("engine: no legal untried move off-origin")

// Actuator commits a grid cell as the live actuation setting.
type Actuator interface {
	CommandCell(c Cell)
}

// Config holds the fixed decision thresholds. Nothing here is estimated
// or adapted at runtime.
type Config struct {
	GridSize int
	// PanicJumpBPM is the one-way panic trigger: a bpm rise of at least
	// this much over the previous valid sample.
	PanicJumpBPM int
	// ImproveBPM is the drop in bpm that counts as improvement.
	ImproveBPM int
	// ImproveCry is the drop in cry percent that counts as improvement;
	// a cry level at or below it is improvement outright.
	ImproveCry int
	// StableBPMBand bounds |delta bpm| for the stability check.
	StableBPMBand int
	// Cry regime is active when bpm is below CryRegimeMaxBPM and the cry
	// level is strictly inside (CryRegimeLowCry, CryRegimeHighCry).
	CryRegimeMaxBPM  int
	CryRegimeLowCry  int
	CryRegimeHighCry int
}

func DefaultConfig() Config {
	return Config{
		GridSize:         5,
		PanicJumpBPM:     30,
		ImproveBPM:       10,
		ImproveCry:       1,
		StableBPMBand:    3,
		CryRegimeMaxBPM:  150,
		CryRegimeLowCry:  15,
		CryRegimeHighCry: 52,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.GridSize <= 1 {
		c.GridSize = def.GridSize
	}
	if c.PanicJumpBPM <= 0 {
		c.PanicJumpBPM = def.PanicJumpBPM
	}
	if c.ImproveBPM <= 0 {
		c.ImproveBPM = def.ImproveBPM
	}
	if c.ImproveCry <= 0 {
		c.ImproveCry = def.ImproveCry
	}
	if c.StableBPMBand <= 0 {
		c.StableBPMBand = def.StableBPMBand
	}
	if c.CryRegimeMaxBPM <= 0 {
		c.CryRegimeMaxBPM = def.CryRegimeMaxBPM
	}
	if c.CryRegimeHighCry <= 0 {
		c.CryRegimeLowCry = def.CryRegimeLowCry
		c.CryRegimeHighCry = def.CryRegimeHighCry
	}
	return c
}

// Engine owns the whole controller state. Single-threaded by contract:
// one Step at a time, from one control loop.
type Engine struct {
	cfg   Config
	act   Actuator
	clock platform.Clock
	log   zerolog.Logger

	cur  Cell
	prev Cell

	anchor    Cell
	hasAnchor bool
	triedLeft bool
	triedUp   bool
	lastMove  Direction

	last      Vitals
	regime    Regime
	panicMode bool
	hitWall   bool
	anchors   *AnchorMap

	startMS       int64
	calmReached   bool
	calmElapsedMS int64
}

func New(cfg Config, act Actuator, clock platform.Clock, log zerolog.Logger) *Engine {
	e := &Engine{cfg: cfg.withDefaults(), act: act, clock: clock, log: log}
	e.resetState()
	return e
}

// Start stamps the algorithm start time and commands the starting cell.
func (e *Engine) Start() {
	e.startMS = e.clock.NowMillis()
	e.commandCell(e.cur)
}

// Reset discards all controller state, including the anchor map and the
// panic latch, and restarts from the maximal-stimulation corner.
func (e *Engine) Reset() {
	e.resetState()
	e.Start()
	e.log.Info().Msg("controller reset")
}

func (e *Engine) resetState() {
	start := Cell{e.cfg.GridSize - 1, e.cfg.GridSize - 1}
	e.cur = start
	e.prev = start
	e.anchor = Cell{}
	e.hasAnchor = false
	e.triedLeft = false
	e.triedUp = false
	e.lastMove = MoveNone
	e.last = Vitals{BPM: -1, Cry: -1}
	e.regime = RegimeHeartbeat
	e.panicMode = false
	e.hitWall = false
	e.anchors = NewAnchorMap()
	e.startMS = 0
	e.calmReached = false
	e.calmElapsedMS = 0
}

// Cell returns the currently commanded grid cell.
func (e *Engine) Cell() Cell { return e.cur }

func (e *Engine) InPanic() bool { return e.panicMode }

func (e *Engine) Regime() Regime { return e.regime }

func (e *Engine) LastVitals() Vitals { return e.last }

func (e *Engine) Anchors() map[Cell]int { return e.anchors.Snapshot() }

// Elapsed is the wall time since Start.
func (e *Engine) Elapsed() time.Duration {
	if e.startMS == 0 {
		return 0
	}
	return time.Duration(e.clock.NowMillis()-e.startMS) * time.Millisecond
}

// CalmElapsed returns the latched time-to-calm, if recorded.
func (e *Engine) CalmElapsed() (time.Duration, bool) {
	if !e.calmReached {
		return 0, false
	}
	return time.Duration(e.calmElapsedMS) * time.Millisecond, true
}

// commandCell clamps, commits, and issues exactly one actuation command.
// The first non-panic arrival at the origin latches time-to-calm.
func (e *Engine) commandCell(c Cell) {
	max := e.cfg.GridSize - 1
	c.Amp = clamp(c.Amp, 0, max)
	c.Freq = clamp(c.Freq, 0, max)
	e.cur = c
	if e.act != nil {
		e.act.CommandCell(c)
	}
	if !e.calmReached && !e.panicMode && e.startMS > 0 && c == Origin {
		e.calmReached = true
		e.calmElapsedMS = e.clock.NowMillis() - e.startMS
		e.log.Info().Int64("elapsed_ms", e.calmElapsedMS).Msg("calm reached")
	}
}
