package controller

import (
	"context"

	"github.com/danmuck/cradlectl/internal/diag"
)

// serveDiagnostic hands the terminal to the manual-vitals screen. The
// engine and its gated motor actuator are shared with the primary path,
// so decisions made from injected vitals still reach the motor peer.
func (s *Service) serveDiagnostic(ctx context.Context) error {
	cfg := diag.DefaultConfig()
	cfg.Cadence = s.cfg.Cadence
	if s.cfg.Engine.GridSize > 1 {
		cfg.GridSize = s.cfg.Engine.GridSize
	}
	s.log.Info().Msg("diagnostic screen running")
	return diag.Run(ctx, cfg, s.eng, s.col.Restarter, s.log)
}
