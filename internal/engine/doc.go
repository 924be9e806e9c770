// Package engine implements the cradle decision algorithm: an
// anchor-based hill-climbing walk over the 5x5 amplitude/frequency
// actuation grid, driven by heart-rate and cry-level samples.
//
// The engine is pure control logic. It talks to hardware only through the
// Actuator and Clock collaborators and never blocks; callers feed it one
// vitals sample per step on whatever cadence the scheduler picks.
package engine
