package engine

import "time"

// CadenceConfig sets the re-invocation delays between engine steps and
// the independent vitals polling cadence. Heart rate reacts slowly, so
// its regime waits out the physiological lag; a boundary hit leaves only
// one path to the origin and needs just the convergence settle time.
type CadenceConfig struct {
	HeartbeatDelay   time.Duration
	CryingDelay      time.Duration
	ConvergenceDelay time.Duration
	// VitalsPoll is the heart-rate polling cadence, decoupled from the
	// step delays above.
	VitalsPoll time.Duration
}

func DefaultCadenceConfig() CadenceConfig {
	return CadenceConfig{
		HeartbeatDelay:   14 * time.Second,
		CryingDelay:      4 * time.Second,
		ConvergenceDelay: 4 * time.Second,
		VitalsPoll:       100 * time.Millisecond,
	}
}

// StepDelay picks the wait before the next engine step from the wall-hit
// flag and the active regime.
func (c CadenceConfig) StepDelay(hitWall bool, regime Regime) time.Duration {
	if hitWall {
		return c.ConvergenceDelay
	}
	if regime == RegimeCrying {
		return c.CryingDelay
	}
	return c.HeartbeatDelay
}
