package engine

// StepReport summarizes one engine step for the control loop and the
// status surface.
type StepReport struct {
	Cell    Cell
	Move    Direction
	Panic   bool
	Regime  Regime
	HitWall bool
	Calm    bool
	Err     error
}

// Step runs one decision cycle on the latest vitals sample. Every branch
// records the sample as the new previous vitals before returning, and
// every committed move issues exactly one actuation command.
func (e *Engine) Step(v Vitals) StepReport {
	e.hitWall = false

	// Panic detection: a sudden bpm jump over the previous valid sample
	// is one-way until an explicit reset.
	if !e.panicMode && e.last.BPM > 0 && v.BPM-e.last.BPM >= e.cfg.PanicJumpBPM {
		e.panicMode = true
		e.log.Warn().Int("bpm", v.BPM).Int("cry", v.Cry).Msg("panic triggered")
	}
	if e.panicMode {
		e.commandCell(Origin)
		e.last = v
		return e.report(MoveNone, nil)
	}

	improved := e.selectRegime(v)
	stable := e.isStable(v)

	if e.lastMove == MoveNone {
		return e.stepIdle(v)
	}
	if improved {
		return e.stepImproved(v)
	}
	return e.stepNotImproved(v, stable)
}

// selectRegime recomputes the active regime from the raw vitals and
// returns that regime's improvement verdict. Below the bpm ceiling, with
// cry strictly inside its band, heart rate is too delayed to steer by and
// crying takes over as the signal.
func (e *Engine) selectRegime(v Vitals) bool {
	if v.BPM < e.cfg.CryRegimeMaxBPM && v.Cry > e.cfg.CryRegimeLowCry && v.Cry < e.cfg.CryRegimeHighCry {
		e.regime = RegimeCrying
		return e.cryImproved(v.Cry)
	}
	e.regime = RegimeHeartbeat
	return e.heartbeatImproved(v.BPM)
}

func (e *Engine) heartbeatImproved(bpm int) bool {
	return e.last.BPM > 0 && e.last.BPM-bpm >= e.cfg.ImproveBPM
}

func (e *Engine) cryImproved(cry int) bool {
	if cry <= e.cfg.ImproveCry {
		return true
	}
	return e.last.Cry > 0 && e.last.Cry-cry >= e.cfg.ImproveCry
}

// isStable is only meaningful right after a Left move with a valid
// previous bpm; it gates the reverse-diagonal response.
func (e *Engine) isStable(v Vitals) bool {
	if e.last.BPM <= 0 || e.lastMove != MoveLeft {
		return false
	}
	if e.regime == RegimeCrying {
		cryDelta := 0
		if e.last.Cry >= 0 {
			cryDelta = abs(v.Cry - e.last.Cry)
		}
		return cryDelta == 0
	}
	return abs(v.BPM-e.last.BPM) <= e.cfg.StableBPMBand
}

// stepIdle picks the first exploratory move from the current anchor:
// Left if untried and legal, else Up if untried and legal, else hold.
func (e *Engine) stepIdle(v Vitals) StepReport {
	// Sync the remembered anchor to wherever we sit.
	if !e.hasAnchor || e.anchor != e.cur {
		e.anchor = e.cur
		e.hasAnchor = true
		e.triedLeft = false
		e.triedUp = false
		if e.anchors.Register(e.cur) {
			e.log.Info().Stringer("cell", e.cur).Int("level", e.anchors.Len()).Msg("anchor set")
		}
	}

	e.prev = e.cur

	if !e.triedLeft && e.cur.Freq > 0 {
		e.triedLeft = true
		e.lastMove = MoveLeft
		e.log.Info().Stringer("from", e.prev).Msg("try left")
		e.commandCell(Cell{e.cur.Amp, e.cur.Freq - 1})
		e.last = v
		return e.report(MoveLeft, nil)
	}
	if !e.triedLeft && e.cur.Freq == 0 {
		e.hitWall = true
		e.log.Debug().Stringer("cell", e.cur).Msg("hit left wall")
	} else if !e.triedUp && e.cur.Amp == 0 {
		e.hitWall = true
		e.log.Debug().Stringer("cell", e.cur).Msg("hit upper wall")
	}
	if !e.triedUp && e.cur.Amp > 0 {
		e.triedUp = true
		e.lastMove = MoveUp
		e.log.Info().Stringer("from", e.prev).Msg("try up")
		e.commandCell(Cell{e.cur.Amp - 1, e.cur.Freq})
		e.last = v
		return e.report(MoveUp, nil)
	}
	e.last = v
	if e.cur == Origin {
		e.log.Debug().Msg("calm, holding")
		return e.report(MoveNone, nil)
	}
	e.log.Error().Stringer("cell", e.cur).Msg("grid invariant violated, holding")
	return e.report(MoveNone, ErrGridInvariant)
}

// stepImproved promotes the move destination to the new anchor and issues
// at most one follow-up move in the same Left-preferred order.
func (e *Engine) stepImproved(v Vitals) StepReport {
	newAnchor := e.cur
	if e.anchors.Register(newAnchor) {
		e.log.Info().Stringer("cell", newAnchor).Int("level", e.anchors.Len()).Msg("improved, promoted anchor")
	}
	if !e.hasAnchor || e.anchor != newAnchor {
		e.anchor = newAnchor
		e.hasAnchor = true
		e.triedLeft = false
		e.triedUp = false
	}
	e.prev = newAnchor

	move := MoveNone
	switch {
	case newAnchor.Freq > 0:
		e.lastMove = MoveLeft
		e.triedLeft = true
		e.commandCell(Cell{newAnchor.Amp, newAnchor.Freq - 1})
		move = MoveLeft
	case newAnchor.Amp > 0:
		// triedUp stays unmarked on the follow-up; only the idle phase
		// and the reverse diagonal consume it.
		e.lastMove = MoveUp
		e.commandCell(Cell{newAnchor.Amp - 1, newAnchor.Freq})
		move = MoveUp
	}
	e.last = v
	return e.report(move, nil)
}

// stepNotImproved handles same-or-worse: a reverse-diagonal move when the
// state held stable after a Left, otherwise an exact revert to the
// previous anchor.
func (e *Engine) stepNotImproved(v Vitals, stable bool) StepReport {
	if stable && e.lastMove == MoveLeft {
		from := e.prev
		if from.Amp > 0 {
			// Up from the anchor we left, not from the failed move's
			// destination. The current cell becomes the fallback.
			e.lastMove = MoveUp
			e.triedUp = true
			e.prev = e.cur
			e.log.Info().Stringer("from", from).Msg("stable after left, reverse diagonal")
			e.commandCell(Cell{from.Amp - 1, from.Freq})
			e.last = v
			return e.report(MoveUp, nil)
		}
	}

	target := e.prev
	if target != e.cur {
		e.log.Info().Stringer("cell", target).Msg("no improvement, reverting")
		e.commandCell(target)
	}
	e.cur = target
	e.lastMove = MoveNone
	e.last = v
	return e.report(MoveNone, nil)
}

func (e *Engine) report(move Direction, err error) StepReport {
	return StepReport{
		Cell:    e.cur,
		Move:    move,
		Panic:   e.panicMode,
		Regime:  e.regime,
		HitWall: e.hitWall,
		Calm:    e.calmReached,
		Err:     err,
	}
}
