package engine

import "fmt"

// Cell is one position on the actuation grid: amplitude and frequency
// indices in [0, GridSize). Origin (0,0) is the fully-calmed target;
// the opposite corner is the maximal-stimulation starting point.
type Cell struct {
	Amp  int
	Freq int
}

// Origin is the calm target cell.
var Origin = Cell{}

// String renders the 1-based form used on the status surface.
func (c Cell) String() string {
	return fmt.Sprintf("A%d F%d", c.Amp+1, c.Freq+1)
}

// Direction is the unit move committed by the last step.
type Direction int

const (
	MoveNone Direction = iota
	MoveLeft           // decrease frequency index
	MoveUp             // decrease amplitude index
)

func (d Direction) String() string {
	switch d {
	case MoveLeft:
		return "left"
	case MoveUp:
		return "up"
	default:
		return "none"
	}
}

// Regime selects which vital serves as the improvement signal.
type Regime int

const (
	RegimeHeartbeat Regime = iota
	RegimeCrying
)

func (r Regime) String() string {
	if r == RegimeCrying {
		return "cry-driven"
	}
	return "hb-driven"
}

// Vitals is one sampled observation. Negative values mean "no valid
// sample yet"; a failed poll leaves the previous sample in effect.
type Vitals struct {
	BPM int
	Cry int
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
