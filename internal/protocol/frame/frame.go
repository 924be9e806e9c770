// Package frame implements the addressed, length-prefixed codec used on
// the shared half-duplex serial bus. Wire layout:
//
//	[dst:1][src:1][len:1][payload: len bytes]
//
// Receive layers two independent timeouts: the caller's poll budget bounds
// the wait for the first header byte only, while every subsequent byte is
// awaited under its own fixed per-byte window. An aggregate receive can
// therefore run past the caller's stated budget when bytes trickle in
// slowly but inside their own windows.
package frame

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/platform"
	"github.com/danmuck/cradlectl/internal/protocol"
)

var (
	ErrTimeout = errors.New("frame: receive timeout")
	// ErrForeign marks a frame addressed to another node. The payload has
	// already been consumed so the next read starts header-aligned; the
	// caller just moves on.
	ErrForeign = errors.New("frame: foreign destination")
)

// Frame is one decoded bus message.
type Frame struct {
	Dst     protocol.PeerID
	Src     protocol.PeerID
	Payload []byte
}

// Timeouts holds the two receive timeout layers.
type Timeouts struct {
	// PerByte bounds the wait for each byte after the first header byte.
	PerByte time.Duration
	// Poll is the coarse wait granularity between port checks.
	Poll time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		PerByte: 20 * time.Millisecond,
		Poll:    time.Millisecond,
	}
}

// Codec frames and deframes messages for one node on the bus.
type Codec struct {
	port  platform.Port
	clock platform.Clock
	self  protocol.PeerID
	t     Timeouts
	log   zerolog.Logger
}

func NewCodec(port platform.Port, clock platform.Clock, self protocol.PeerID, t Timeouts, log zerolog.Logger) *Codec {
	if t.PerByte <= 0 {
		t.PerByte = DefaultTimeouts().PerByte
	}
	if t.Poll <= 0 {
		t.Poll = DefaultTimeouts().Poll
	}
	return &Codec{port: port, clock: clock, self: self, t: t, log: log}
}

// Pending reports whether at least one byte is buffered on the port.
func (c *Codec) Pending() bool {
	return c.port.HasData()
}

// Send writes one frame. The send itself implies no acknowledgement.
func (c *Codec) Send(dst, src protocol.PeerID, payload []byte) error {
	if len(payload) > protocol.MaxPayload {
		payload = payload[:protocol.MaxPayload]
	}
	if err := c.port.SendByte(byte(dst)); err != nil {
		return err
	}
	if err := c.port.SendByte(byte(src)); err != nil {
		return err
	}
	if err := c.port.SendByte(byte(len(payload))); err != nil {
		return err
	}
	for _, b := range payload {
		if err := c.port.SendByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Receive polls for the next frame addressed to this node. The budget
// bounds only the wait for the first header byte; a zero budget means a
// single immediate check. Frames for other destinations are drained to
// keep header alignment and reported as ErrForeign. A declared length
// above the payload cap is silently truncated to the cap.
func (c *Codec) Receive(budget time.Duration) (Frame, error) {
	first, ok := c.pollByte(budget)
	if !ok {
		return Frame{}, ErrTimeout
	}
	dst := protocol.PeerID(first)

	srcByte, ok := c.awaitByte()
	if !ok {
		return Frame{}, ErrTimeout
	}
	src := protocol.PeerID(srcByte)

	length, ok := c.awaitByte()
	if !ok {
		return Frame{}, ErrTimeout
	}

	if dst != c.self {
		// Not ours: consume the declared payload so the stream stays
		// aligned on the next header. Per-byte timeouts are ignored here;
		// dropping short is still better than leaving bytes behind.
		for i := 0; i < int(length); i++ {
			c.awaitByte()
		}
		c.log.Trace().Stringer("dst", dst).Stringer("src", src).Int("len", int(length)).Msg("drained foreign frame")
		return Frame{Dst: dst, Src: src}, ErrForeign
	}

	if int(length) > protocol.MaxPayload {
		length = protocol.MaxPayload
	}
	payload := make([]byte, 0, length)
	for i := 0; i < int(length); i++ {
		b, ok := c.awaitByte()
		if !ok {
			return Frame{}, ErrTimeout
		}
		payload = append(payload, b)
	}
	return Frame{Dst: dst, Src: src, Payload: payload}, nil
}

// pollByte waits up to budget for a buffered byte.
func (c *Codec) pollByte(budget time.Duration) (byte, bool) {
	start := c.clock.NowMillis()
	for {
		if c.port.HasData() {
			b, err := c.port.RecvByte()
			if err == nil {
				return b, true
			}
		}
		if time.Duration(c.clock.NowMillis()-start)*time.Millisecond >= budget {
			return 0, false
		}
		c.clock.Sleep(c.t.Poll)
	}
}

func (c *Codec) awaitByte() (byte, bool) {
	return c.pollByte(c.t.PerByte)
}
