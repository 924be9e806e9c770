package frame

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/cradlectl/internal/protocol"
	"github.com/danmuck/cradlectl/internal/testutil/fakeclock"
)

func newTestCodec(t *testing.T, self protocol.PeerID) (*Codec, *PipeEnd) {
	t.Helper()
	devEnd, busEnd := NewPipe().Ends()
	codec := NewCodec(devEnd, fakeclock.New(), self, DefaultTimeouts(), zerolog.Nop())
	return codec, busEnd
}

func sendRaw(end *PipeEnd, bs ...byte) {
	for _, b := range bs {
		_ = end.SendByte(b)
	}
}

func TestSendReceiveRoundTrip(t *testing.T) {
	pipe := NewPipe()
	devEnd, busEnd := pipe.Ends()
	clock := fakeclock.New()
	sender := NewCodec(busEnd, clock, protocol.PeerHeartbeat, DefaultTimeouts(), zerolog.Nop())
	receiver := NewCodec(devEnd, clock, protocol.PeerDecision, DefaultTimeouts(), zerolog.Nop())

	payload := []byte{'H', 187}
	if err := sender.Send(protocol.PeerDecision, protocol.PeerHeartbeat, payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := receiver.Receive(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Dst != protocol.PeerDecision || f.Src != protocol.PeerHeartbeat {
		t.Fatalf("address mismatch: got dst=%s src=%s", f.Dst, f.Src)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch: got %v want %v", f.Payload, payload)
	}
}

func TestReceiveTimesOutWithNoData(t *testing.T) {
	codec, _ := newTestCodec(t, protocol.PeerDecision)
	_, err := codec.Receive(20 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestZeroBudgetIsSingleCheck(t *testing.T) {
	codec, busEnd := newTestCodec(t, protocol.PeerDecision)
	if _, err := codec.Receive(0); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected immediate ErrTimeout, got %v", err)
	}
	sendRaw(busEnd, byte(protocol.PeerDecision), byte(protocol.PeerCrying), 2, 'C', 40)
	f, err := codec.Receive(0)
	if err != nil {
		t.Fatalf("receive buffered frame: %v", err)
	}
	if f.Src != protocol.PeerCrying || len(f.Payload) != 2 {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestForeignFrameKeepsAlignment(t *testing.T) {
	codec, busEnd := newTestCodec(t, protocol.PeerDecision)

	// Frame for the motor node, then one for us. The foreign payload must
	// be consumed so our frame still decodes.
	sendRaw(busEnd, byte(protocol.PeerMotor), byte(protocol.PeerDecision), 3, 'M', 2, 2)
	sendRaw(busEnd, byte(protocol.PeerDecision), byte(protocol.PeerHeartbeat), 2, 'H', 150)

	_, err := codec.Receive(20 * time.Millisecond)
	if !errors.Is(err, ErrForeign) {
		t.Fatalf("expected ErrForeign, got %v", err)
	}
	f, err := codec.Receive(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive after foreign: %v", err)
	}
	if f.Src != protocol.PeerHeartbeat || f.Payload[0] != 'H' || f.Payload[1] != 150 {
		t.Fatalf("desynchronized after foreign frame: %+v", f)
	}
}

func TestOversizedLengthIsCapped(t *testing.T) {
	codec, busEnd := newTestCodec(t, protocol.PeerDecision)
	sendRaw(busEnd, byte(protocol.PeerDecision), byte(protocol.PeerHeartbeat), 9)
	for i := 0; i < 9; i++ {
		_ = busEnd.SendByte(byte(i))
	}
	f, err := codec.Receive(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(f.Payload) != protocol.MaxPayload {
		t.Fatalf("expected payload capped at %d, got %d", protocol.MaxPayload, len(f.Payload))
	}
}

func TestSendTruncatesOversizedPayload(t *testing.T) {
	codec, busEnd := newTestCodec(t, protocol.PeerDecision)
	long := []byte{1, 2, 3, 4, 5, 6, 7}
	if err := codec.Send(protocol.PeerMotor, protocol.PeerDecision, long); err != nil {
		t.Fatalf("send: %v", err)
	}
	// dst, src, len, then exactly MaxPayload bytes on the wire.
	want := 3 + protocol.MaxPayload
	got := 0
	for busEnd.HasData() {
		if _, err := busEnd.RecvByte(); err != nil {
			t.Fatalf("recv: %v", err)
		}
		got++
	}
	if got != want {
		t.Fatalf("wire bytes: got %d want %d", got, want)
	}
}

func TestTruncatedPayloadTimesOut(t *testing.T) {
	codec, busEnd := newTestCodec(t, protocol.PeerDecision)
	sendRaw(busEnd, byte(protocol.PeerDecision), byte(protocol.PeerHeartbeat), 2, 'H')
	_, err := codec.Receive(20 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout on short payload, got %v", err)
	}
}
