package hud

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/platform"
)

func TestFormatMMSS(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{60 * time.Second, "01:00"},
		{14*time.Minute + 7*time.Second, "14:07"},
		{-5 * time.Second, "00:00"},
		{3 * time.Hour, "99:59"},
	}
	for _, c := range cases {
		if got := FormatMMSS(c.d); got != c.want {
			t.Fatalf("FormatMMSS(%v): got %q want %q", c.d, got, c.want)
		}
	}
}

func TestLogSinkDropsUnchangedLines(t *testing.T) {
	var buf strings.Builder
	s := NewLogSink(zerolog.New(&buf))

	s.Render(LineBPM, "bpm 142", platform.SevInfo)
	s.Render(LineBPM, "bpm 142", platform.SevInfo)
	s.Render(LineBPM, "bpm 131", platform.SevGood)

	out := buf.String()
	if got := strings.Count(out, "bpm 142"); got != 1 {
		t.Fatalf("unchanged line logged %d times, want 1", got)
	}
	if !strings.Contains(out, "bpm 131") {
		t.Fatalf("changed line missing from log: %s", out)
	}
}

func TestTermSinkViewKeepsLineOrder(t *testing.T) {
	s := NewTermSink(nil)
	s.Render(LineCell, "A1 F1", platform.SevGood)
	s.Render(LineBPM, "bpm 120", platform.SevInfo)

	view := s.View()
	bpmAt := strings.Index(view, "bpm 120")
	cellAt := strings.Index(view, "A1 F1")
	if bpmAt < 0 || cellAt < 0 {
		t.Fatalf("rendered lines missing: %q", view)
	}
	if bpmAt > cellAt {
		t.Fatalf("bpm must render before the cell line regardless of update order")
	}
}
