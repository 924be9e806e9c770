// Package diag is the interactive manual-vitals screen. It stands in for
// the sensor peers during bring-up: the operator injects bpm and cry
// levels from the keyboard while the real decision engine runs underneath
// and its motor commands go out on the bus as usual.
package diag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/engine"
	"github.com/danmuck/cradlectl/internal/hud"
	"github.com/danmuck/cradlectl/internal/platform"
)

// Config bounds the injected vitals and carries the step cadence.
type Config struct {
	Cadence  engine.CadenceConfig
	GridSize int

	StartBPM int
	StartCry int
	BPMStep  int
	CryStep  int
	BPMMin   int
	BPMMax   int
	CryMax   int

	// ForcedCry is injected once, the first time bpm drops below
	// ForcedCryBelowBPM, imitating an infant starting to cry as distress
	// builds. The operator can then work it down manually.
	ForcedCry         int
	ForcedCryBelowBPM int
}

func DefaultConfig() Config {
	return Config{
		Cadence:           engine.DefaultCadenceConfig(),
		GridSize:          5,
		StartBPM:          200,
		StartCry:          0,
		BPMStep:           10,
		CryStep:           10,
		BPMMin:            60,
		BPMMax:            240,
		CryMax:            100,
		ForcedCry:         52,
		ForcedCryBelowBPM: 150,
	}
}

type tickMsg time.Time

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	styleLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleValue  = lipgloss.NewStyle().Bold(true)
	stylePanic  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleCalm   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	styleCursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleAnchor = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	styleGrid   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

// Model drives the engine from keyboard-injected vitals.
type Model struct {
	cfg       Config
	keys      KeyMap
	eng       *engine.Engine
	restarter platform.Restarter
	log       zerolog.Logger

	bpm       int
	cry       int
	cryForced bool

	last     engine.StepReport
	stepped  bool
	nextStep time.Time
}

func New(cfg Config, eng *engine.Engine, restarter platform.Restarter, log zerolog.Logger) Model {
	if restarter == nil {
		restarter = platform.NopRestarter{}
	}
	return Model{
		cfg:       cfg,
		keys:      DefaultKeyMap,
		eng:       eng,
		restarter: restarter,
		log:       log,
		bpm:       cfg.StartBPM,
		cry:       cfg.StartCry,
	}
}

// Run blocks in the alternate screen until quit or context cancel.
func Run(ctx context.Context, cfg Config, eng *engine.Engine, restarter platform.Restarter, log zerolog.Logger) error {
	p := tea.NewProgram(New(cfg, eng, restarter, log), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Cadence.VitalsPoll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tickMsg:
		now := time.Time(msg)
		if m.nextStep.IsZero() || !now.Before(m.nextStep) {
			rep := m.eng.Step(engine.Vitals{BPM: m.bpm, Cry: m.cry})
			if rep.Err != nil {
				m.log.Error().Err(rep.Err).Msg("engine step")
			}
			m.last = rep
			m.stepped = true
			m.nextStep = now.Add(m.cfg.Cadence.StepDelay(rep.HitWall, rep.Regime))
		}
		return m, m.tickCmd()
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Restart):
		m.log.Info().Msg("restart requested")
		m.restarter.Restart()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reset):
		m.eng.Reset()
		m.bpm = m.cfg.StartBPM
		m.cry = m.cfg.StartCry
		m.cryForced = false
		m.stepped = false
		m.nextStep = time.Time{}
	case key.Matches(msg, m.keys.BPMUp):
		m.bpm = min(m.bpm+m.cfg.BPMStep, m.cfg.BPMMax)
	case key.Matches(msg, m.keys.BPMDown):
		m.bpm = max(m.bpm-m.cfg.BPMStep, m.cfg.BPMMin)
		if !m.cryForced && m.bpm < m.cfg.ForcedCryBelowBPM {
			m.cry = m.cfg.ForcedCry
			m.cryForced = true
		}
	case key.Matches(msg, m.keys.CryUp):
		m.cry = min(m.cry+m.cfg.CryStep, m.cfg.CryMax)
	case key.Matches(msg, m.keys.CryDown):
		m.cry = max(m.cry-m.cfg.CryStep, 0)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("decisionctl — manual vitals"))
	b.WriteString("\n\n")

	b.WriteString(styleLabel.Render("bpm "))
	b.WriteString(styleValue.Render(fmt.Sprintf("%3d", m.bpm)))
	b.WriteString(styleLabel.Render("   cry "))
	b.WriteString(styleValue.Render(fmt.Sprintf("%3d", m.cry)))
	if m.stepped {
		b.WriteString(styleLabel.Render("   regime "))
		b.WriteString(styleValue.Render(m.last.Regime.String()))
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewGrid())
	b.WriteString("\n")

	b.WriteString(styleLabel.Render("cell "))
	b.WriteString(styleValue.Render(m.eng.Cell().String()))
	b.WriteString(styleLabel.Render("   elapsed "))
	b.WriteString(styleValue.Render(hud.FormatMMSS(m.eng.Elapsed())))
	if calm, ok := m.eng.CalmElapsed(); ok {
		b.WriteString("   ")
		b.WriteString(styleCalm.Render("calm at " + hud.FormatMMSS(calm)))
	}
	if m.eng.InPanic() {
		b.WriteString("   ")
		b.WriteString(stylePanic.Render("PANIC"))
	}
	b.WriteString("\n\n")

	b.WriteString(styleHelp.Render(m.helpLine()))
	return styleBorder.Render(b.String())
}

// viewGrid paints the actuation grid with amplitude rows top-down and
// frequency columns left-right; the commanded cell and known anchors are
// marked.
func (m Model) viewGrid() string {
	cur := m.eng.Cell()
	anchors := m.eng.Anchors()

	var b strings.Builder
	for amp := 0; amp < m.cfg.GridSize; amp++ {
		b.WriteString(styleGrid.Render(fmt.Sprintf("A%d ", amp+1)))
		for freq := 0; freq < m.cfg.GridSize; freq++ {
			c := engine.Cell{Amp: amp, Freq: freq}
			switch {
			case c == cur:
				b.WriteString(styleCursor.Render(" ◉ "))
			case anchorAt(anchors, c):
				b.WriteString(styleAnchor.Render(" ○ "))
			default:
				b.WriteString(styleGrid.Render(" · "))
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(styleGrid.Render("   "))
	for freq := 0; freq < m.cfg.GridSize; freq++ {
		b.WriteString(styleGrid.Render(fmt.Sprintf(" F%d", freq+1)))
	}
	return b.String()
}

func anchorAt(anchors map[engine.Cell]int, c engine.Cell) bool {
	_, ok := anchors[c]
	return ok
}

func (m Model) helpLine() string {
	parts := []string{
		m.keys.BPMUp.Help().Key + "/" + m.keys.BPMDown.Help().Key + " bpm",
		m.keys.CryUp.Help().Key + "/" + m.keys.CryDown.Help().Key + " cry",
		m.keys.Reset.Help().Key + " reset",
		m.keys.Restart.Help().Key + " restart",
		m.keys.Quit.Help().Key + " quit",
	}
	return strings.Join(parts, "  ·  ")
}
