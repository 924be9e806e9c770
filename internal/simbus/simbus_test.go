package simbus

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/protocol"
	"github.com/danmuck/cradlectl/internal/protocol/frame"
	"github.com/danmuck/cradlectl/internal/testutil/fakeclock"
	"github.com/danmuck/cradlectl/internal/testutil/testlog"
)

func newSimPair(t *testing.T) (*frame.Codec, *Sim) {
	t.Helper()
	testlog.Start(t)
	near, far := frame.NewPipe().Ends()
	codec := frame.NewCodec(near, fakeclock.New(), protocol.PeerDecision, frame.DefaultTimeouts(), zerolog.Nop())
	return codec, New(far, zerolog.Nop())
}

func TestPingIsAcknowledged(t *testing.T) {
	codec, sim := newSimPair(t)

	if err := codec.Send(protocol.PeerMotor, protocol.PeerDecision, protocol.PingPayload()); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.ServePending()

	f, err := codec.Receive(0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !protocol.IsPingAck(protocol.PeerMotor, f.Src, f.Payload) {
		t.Fatalf("not a ping ack: src=%s payload=%v", f.Src, f.Payload)
	}
}

func TestSensorPeersAnswerWithSetVitals(t *testing.T) {
	codec, sim := newSimPair(t)
	sim.SetVitals(142, 37)

	if err := codec.Send(protocol.PeerHeartbeat, protocol.PeerDecision, protocol.HeartbeatRequest()); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.ServePending()
	f, err := codec.Receive(0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	bpm, err := protocol.ParseHeartbeatReply(f.Src, f.Payload)
	if err != nil || bpm != 142 {
		t.Fatalf("heartbeat reply: bpm=%d err=%v", bpm, err)
	}

	if err := codec.Send(protocol.PeerCrying, protocol.PeerDecision, protocol.CryingRequest()); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.ServePending()
	f, err = codec.Receive(0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	cry, err := protocol.ParseCryingReply(f.Src, f.Payload)
	if err != nil || cry != 37 {
		t.Fatalf("crying reply: cry=%d err=%v", cry, err)
	}
}

func TestDisabledPeerStaysSilent(t *testing.T) {
	codec, sim := newSimPair(t)
	sim.SetEnabled(protocol.PeerCrying, false)

	if err := codec.Send(protocol.PeerCrying, protocol.PeerDecision, protocol.CryingRequest()); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.ServePending()

	if _, err := codec.Receive(0); !errors.Is(err, frame.ErrTimeout) {
		t.Fatalf("dead peer must not answer, got %v", err)
	}
}

func TestMotorCommandsAreRecorded(t *testing.T) {
	codec, sim := newSimPair(t)

	if err := codec.Send(protocol.PeerMotor, protocol.PeerDecision, protocol.MotorCommand(2, 3)); err != nil {
		t.Fatalf("send: %v", err)
	}
	sim.ServePending()

	got := sim.MotorCommands()
	if len(got) != 1 || got[0] != [2]uint8{2, 3} {
		t.Fatalf("motor commands: %v", got)
	}
}
