// Package simbus simulates the far end of the shared bus: the heartbeat
// and crying sensor peers and the motor peer, all answering through one
// in-memory pipe. It lets the decision node run end to end on a laptop
// with no cradle hardware attached.
package simbus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/protocol"
	"github.com/danmuck/cradlectl/internal/protocol/frame"
)

// Sim services every peer address from one port end. Frames addressed to
// a disabled peer are consumed without a reply, which is exactly what a
// dead node on the bus looks like.
type Sim struct {
	end *frame.PipeEnd
	log zerolog.Logger

	mu      sync.Mutex
	bpm     uint8
	cry     uint8
	soothe  uint8
	enabled map[protocol.PeerID]bool
	motor   [][2]uint8
}

func New(end *frame.PipeEnd, log zerolog.Logger) *Sim {
	return &Sim{
		end: end,
		log: log,
		bpm: 200,
		enabled: map[protocol.PeerID]bool{
			protocol.PeerHeartbeat: true,
			protocol.PeerCrying:    true,
			protocol.PeerMotor:     true,
		},
	}
}

// SetVitals updates the values the sensor peers will answer with.
func (s *Sim) SetVitals(bpm, cry uint8) {
	s.mu.Lock()
	s.bpm = bpm
	s.cry = cry
	s.mu.Unlock()
}

// SetSootheStep makes the simulated infant respond to stimulation: each
// motor command lowers bpm by step, floored at 120. Zero disables the
// response and leaves the vitals fully manual.
func (s *Sim) SetSootheStep(step uint8) {
	s.mu.Lock()
	s.soothe = step
	s.mu.Unlock()
}

// SetEnabled marks a peer alive or dead on the simulated bus.
func (s *Sim) SetEnabled(peer protocol.PeerID, on bool) {
	s.mu.Lock()
	s.enabled[peer] = on
	s.mu.Unlock()
}

// MotorCommands returns a copy of every actuation command received so far.
func (s *Sim) MotorCommands() [][2]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]uint8, len(s.motor))
	copy(out, s.motor)
	return out
}

// Run services the bus until the context is canceled.
func (s *Sim) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !s.serveOne() {
			time.Sleep(time.Millisecond)
		}
	}
}

// ServePending handles every complete frame currently buffered. Used by
// tests and by callers that drive the sim without a goroutine.
func (s *Sim) ServePending() {
	for s.serveOne() {
	}
}

// serveOne consumes one complete frame if buffered. The pipe delivers
// whole frames at once, so a positive HasData means the header and the
// declared payload are all readable.
func (s *Sim) serveOne() bool {
	if !s.end.HasData() {
		return false
	}
	dst, err := s.end.RecvByte()
	if err != nil {
		return false
	}
	src, err := s.end.RecvByte()
	if err != nil {
		return false
	}
	n, err := s.end.RecvByte()
	if err != nil {
		return false
	}
	payload := make([]byte, 0, n)
	for i := 0; i < int(n); i++ {
		b, err := s.end.RecvByte()
		if err != nil {
			break
		}
		payload = append(payload, b)
	}
	s.dispatch(protocol.PeerID(dst), protocol.PeerID(src), payload)
	return true
}

func (s *Sim) dispatch(dst, src protocol.PeerID, payload []byte) {
	s.mu.Lock()
	alive := s.enabled[dst]
	bpm, cry := s.bpm, s.cry
	s.mu.Unlock()

	if !alive || len(payload) == 0 {
		return
	}

	switch payload[0] {
	case protocol.TagPing:
		s.reply(dst, src, protocol.PingPayload())
	case protocol.TagHeartbeat:
		if dst == protocol.PeerHeartbeat {
			s.reply(dst, src, protocol.HeartbeatReply(bpm))
		}
	case protocol.TagCrying:
		if dst == protocol.PeerCrying {
			s.reply(dst, src, protocol.CryingReply(cry))
		}
	case protocol.TagMotor:
		amp, freq, err := protocol.ParseMotorCommand(payload)
		if err != nil {
			s.log.Warn().Err(err).Msg("bad motor command")
			return
		}
		s.mu.Lock()
		s.motor = append(s.motor, [2]uint8{amp, freq})
		if s.soothe > 0 && s.bpm >= 120+s.soothe {
			s.bpm -= s.soothe
		}
		s.mu.Unlock()
		s.log.Debug().Uint8("amp", amp).Uint8("freq", freq).Msg("motor command applied")
	}
}

func (s *Sim) reply(from, to protocol.PeerID, payload []byte) {
	buf := make([]byte, 0, 3+len(payload))
	buf = append(buf, byte(to), byte(from), byte(len(payload)))
	buf = append(buf, payload...)
	for _, b := range buf {
		if err := s.end.SendByte(b); err != nil {
			s.log.Error().Err(err).Msg("sim reply send failed")
			return
		}
	}
}
