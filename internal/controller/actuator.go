package controller

import (
	"github.com/danmuck/cradlectl/internal/engine"
	"github.com/danmuck/cradlectl/internal/hud"
	"github.com/danmuck/cradlectl/internal/platform"
)

// motorActuator forwards engine cell decisions to the motor peer. Commands
// are gated on the motor peer's boot-ping health: with a dead motor the
// engine still runs and the decided cell is still rendered, but nothing
// goes out on the bus.
type motorActuator struct {
	svc *Service
}

func (a *motorActuator) CommandCell(c engine.Cell) {
	s := a.svc
	if !s.peers.motor {
		s.render(hud.LineMotor, c.String()+" (motor dead)", platform.SevWarn)
		return
	}
	if err := s.col.Bus.CommandMotor(uint8(c.Amp), uint8(c.Freq)); err != nil {
		s.log.Error().Err(err).Stringer("cell", c).Msg("motor command failed")
		s.render(hud.LineMotor, c.String()+" (send failed)", platform.SevError)
		return
	}
	s.render(hud.LineMotor, c.String(), platform.SevGood)
}
