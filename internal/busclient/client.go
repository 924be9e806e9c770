// Package busclient implements the decision node's bounded request-reply
// calls to the sensor and actuator peers on the shared bus. Every call is
// soft-failing: a missed reply leaves the caller on its last-known value.
package busclient

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/platform"
	"github.com/danmuck/cradlectl/internal/protocol"
	"github.com/danmuck/cradlectl/internal/protocol/frame"
)

var ErrNoReply = errors.New("busclient: reply window elapsed")

// Config defines the exchange windows and retry pacing.
type Config struct {
	// BootPingBudget is the total liveness-probe budget per peer.
	BootPingBudget time.Duration
	// BootPingRetry is the probe resend interval inside the budget.
	BootPingRetry time.Duration
	// HeartbeatWindow bounds the wait for a bpm reply.
	HeartbeatWindow time.Duration
	// CryingWindow bounds the wait for a cry-level reply. Deliberately
	// much shorter than the heartbeat window.
	CryingWindow time.Duration
	// Poll is the coarse wait granularity between receive attempts.
	Poll time.Duration
}

func DefaultConfig() Config {
	return Config{
		BootPingBudget:  1500 * time.Millisecond,
		BootPingRetry:   100 * time.Millisecond,
		HeartbeatWindow: 200 * time.Millisecond,
		CryingWindow:    20 * time.Millisecond,
		Poll:            time.Millisecond,
	}
}

// Client performs single-exchange request/reply calls for one node.
type Client struct {
	codec *frame.Codec
	clock platform.Clock
	self  protocol.PeerID
	cfg   Config
	log   zerolog.Logger
}

func New(codec *frame.Codec, clock platform.Clock, self protocol.PeerID, cfg Config, log zerolog.Logger) *Client {
	return &Client{codec: codec, clock: clock, self: self, cfg: cfg, log: log}
}

// BootPing resends the liveness probe at the retry interval until peer
// acknowledges or the attempt budget elapses. Invoked once per peer at
// startup; false marks the peer dead for the session.
func (c *Client) BootPing(peer protocol.PeerID) bool {
	start := c.clock.NowMillis()
	lastSend := int64(-1)
	for {
		now := c.clock.NowMillis()
		if millis(now-start) >= c.cfg.BootPingBudget {
			c.log.Warn().Stringer("peer", peer).Msg("boot ping budget exhausted")
			return false
		}
		if lastSend < 0 || millis(now-lastSend) >= c.cfg.BootPingRetry {
			if err := c.codec.Send(peer, c.self, protocol.PingPayload()); err != nil {
				c.log.Error().Err(err).Stringer("peer", peer).Msg("boot ping send failed")
				return false
			}
			lastSend = now
		}
		if f, err := c.codec.Receive(0); err == nil && protocol.IsPingAck(peer, f.Src, f.Payload) {
			c.log.Info().Stringer("peer", peer).Msg("peer alive")
			return true
		}
		c.clock.Sleep(c.cfg.Poll)
	}
}

// RequestHeartbeat polls the heartbeat peer for the current bpm. Stale
// frames already buffered for this node are drained first so a late reply
// to an earlier request cannot be mistaken for this one.
func (c *Client) RequestHeartbeat() (uint8, error) {
	c.drainInbox()
	if err := c.codec.Send(protocol.PeerHeartbeat, c.self, protocol.HeartbeatRequest()); err != nil {
		return 0, err
	}
	return c.awaitValue(c.cfg.HeartbeatWindow, protocol.ParseHeartbeatReply)
}

// RequestCrying polls the crying peer for the current cry level.
//
// Unlike RequestHeartbeat this does NOT pre-drain buffered frames. The
// asymmetry is deliberate to keep wire behavior identical to the deployed
// peers; unifying it needs sign-off from the protocol owner first.
func (c *Client) RequestCrying() (uint8, error) {
	if err := c.codec.Send(protocol.PeerCrying, c.self, protocol.CryingRequest()); err != nil {
		return 0, err
	}
	return c.awaitValue(c.cfg.CryingWindow, protocol.ParseCryingReply)
}

// CommandMotor sends the actuation command. Fire-and-forget: no reply is
// awaited and none is defined.
func (c *Client) CommandMotor(amp, freq uint8) error {
	c.log.Debug().Uint8("amp", amp).Uint8("freq", freq).Msg("motor command")
	return c.codec.Send(protocol.PeerMotor, c.self, protocol.MotorCommand(amp, freq))
}

func (c *Client) awaitValue(window time.Duration, parse func(protocol.PeerID, []byte) (uint8, error)) (uint8, error) {
	start := c.clock.NowMillis()
	for {
		if f, err := c.codec.Receive(0); err == nil {
			if v, perr := parse(f.Src, f.Payload); perr == nil {
				return v, nil
			}
		}
		if millis(c.clock.NowMillis()-start) >= window {
			return 0, ErrNoReply
		}
		c.clock.Sleep(c.cfg.Poll)
	}
}

// drainInbox discards every complete frame already buffered for this
// node, removing one-cycle-behind replies from previous requests.
func (c *Client) drainInbox() {
	for c.codec.Pending() {
		if _, err := c.codec.Receive(0); errors.Is(err, frame.ErrTimeout) {
			// No complete frame available right now.
			return
		}
	}
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
