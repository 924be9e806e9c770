// Package platform holds the narrow collaborator interfaces the decision
// core consumes: the serial byte port, a monotonic clock, the process
// restarter, the status sink and the digital-input poll. Hardware-facing
// code lives behind these boundaries, never inside the engine or protocol
// logic.
package platform

import "time"

// Port is a byte-oriented half-duplex serial primitive.
type Port interface {
	SendByte(b byte) error
	HasData() bool
	RecvByte() (byte, error)
}

// Clock provides monotonic milliseconds and the coarse polling wait the
// control loop is built on.
type Clock interface {
	NowMillis() int64
	Sleep(d time.Duration)
}

// Restarter tears down the process and re-executes it from a clean state.
// Restart does not return on success.
type Restarter interface {
	Restart()
}

// Severity classifies a status line for rendering.
type Severity int

const (
	SevInfo Severity = iota
	SevGood
	SevWarn
	SevError
)

// StatusSink mirrors controller state onto whatever surface is attached.
// Purely observational; nothing feeds back into the core.
type StatusSink interface {
	Render(lineKey, text string, sev Severity)
}

// DigitalInput polls a numbered digital line (button, switch).
type DigitalInput interface {
	LineState(index int) bool
}

// SystemClock is the process-wide monotonic clock.
type SystemClock struct {
	base time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{base: time.Now()}
}

func (c *SystemClock) NowMillis() int64 {
	return time.Since(c.base).Milliseconds()
}

func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
