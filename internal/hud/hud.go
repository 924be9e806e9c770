// Package hud renders the controller's status lines. The decision node
// keeps a small set of keyed lines (vitals, decided cell, regime, panic,
// timers) that the control loop re-renders in place; sinks here fan those
// lines out to a styled terminal block or to the structured log.
package hud

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/platform"
)

// Well-known line keys, in display order.
const (
	LineBus     = "bus"
	LineBPM     = "bpm"
	LineCry     = "cry"
	LineRegime  = "regime"
	LineCell    = "cell"
	LineMotor   = "motor"
	LinePanic   = "panic"
	LineElapsed = "elapsed"
	LineCalm    = "calm"
)

var lineOrder = []string{
	LineBus, LineBPM, LineCry, LineRegime, LineCell,
	LineMotor, LinePanic, LineElapsed, LineCalm,
}

// FormatMMSS renders a duration as mm:ss, clamped at 99:59.
func FormatMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	mins := total / 60
	secs := total % 60
	if mins > 99 {
		mins, secs = 99, 59
	}
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// LogSink mirrors status lines into the structured log. Repeated renders
// of an unchanged line are dropped to keep the log readable at the 100 ms
// poll cadence.
type LogSink struct {
	log  zerolog.Logger
	mu   sync.Mutex
	last map[string]string
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log, last: make(map[string]string)}
}

func (s *LogSink) Render(lineKey, text string, sev platform.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last[lineKey] == text {
		return
	}
	s.last[lineKey] = text

	ev := s.log.Info()
	switch sev {
	case platform.SevWarn:
		ev = s.log.Warn()
	case platform.SevError:
		ev = s.log.Error()
	}
	ev.Str("line", lineKey).Msg(text)
}

var (
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	styleGood  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(8)
	styleFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type termLine struct {
	text string
	sev  platform.Severity
}

// TermSink paints the keyed lines as one bordered block. It does not own
// the terminal; View returns the styled block and the diagnostic TUI (or
// a plain repaint loop) decides when to draw it.
type TermSink struct {
	mu    sync.Mutex
	lines map[string]termLine
	out   io.Writer
}

// NewTermSink returns a sink that repaints to out on every change; pass a
// nil writer to use it purely as a View() source for the TUI.
func NewTermSink(out io.Writer) *TermSink {
	return &TermSink{lines: make(map[string]termLine), out: out}
}

func (s *TermSink) Render(lineKey, text string, sev platform.Severity) {
	s.mu.Lock()
	prev, ok := s.lines[lineKey]
	changed := !ok || prev.text != text || prev.sev != sev
	s.lines[lineKey] = termLine{text: text, sev: sev}
	out := s.out
	s.mu.Unlock()

	if changed && out != nil {
		fmt.Fprintln(out, s.View())
	}
}

// View assembles the current block in the fixed line order; unknown keys
// are appended after the well-known ones.
func (s *TermSink) View() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	seen := make(map[string]bool, len(s.lines))
	for _, key := range lineOrder {
		if l, ok := s.lines[key]; ok {
			b.WriteString(s.renderLine(key, l))
			b.WriteByte('\n')
			seen[key] = true
		}
	}
	for key, l := range s.lines {
		if !seen[key] {
			b.WriteString(s.renderLine(key, l))
			b.WriteByte('\n')
		}
	}
	return styleFrame.Render(strings.TrimRight(b.String(), "\n"))
}

func (s *TermSink) renderLine(key string, l termLine) string {
	style := styleInfo
	switch l.sev {
	case platform.SevGood:
		style = styleGood
	case platform.SevWarn:
		style = styleWarn
	case platform.SevError:
		style = styleError
	}
	return styleKey.Render(key) + style.Render(l.text)
}
