package protocol

import "fmt"

// PingPayload is the one-byte liveness probe; the acknowledgement reply
// carries the same single byte.
func PingPayload() []byte {
	return []byte{TagPing}
}

// IsPingAck reports whether a reply payload from src acknowledges a boot
// ping sent to want.
func IsPingAck(want, src PeerID, payload []byte) bool {
	return src == want && len(payload) >= 1 && payload[0] == TagPing
}

// HeartbeatRequest builds the bpm poll payload.
func HeartbeatRequest() []byte {
	return []byte{TagHeartbeat}
}

// HeartbeatReply builds the sensor-side answer: tag plus one bpm byte.
func HeartbeatReply(bpm uint8) []byte {
	return []byte{TagHeartbeat, bpm}
}

// ParseHeartbeatReply extracts the bpm from a reply addressed to us.
func ParseHeartbeatReply(src PeerID, payload []byte) (uint8, error) {
	return parseValueReply(PeerHeartbeat, TagHeartbeat, src, payload)
}

// CryingRequest builds the cry-level poll payload.
func CryingRequest() []byte {
	return []byte{TagCrying}
}

// CryingReply builds the sensor-side answer: tag plus one percent byte.
func CryingReply(pct uint8) []byte {
	return []byte{TagCrying, pct}
}

// ParseCryingReply extracts the cry percentage from a reply.
func ParseCryingReply(src PeerID, payload []byte) (uint8, error) {
	return parseValueReply(PeerCrying, TagCrying, src, payload)
}

// MotorCommand builds the actuation payload: tag, amplitude, frequency.
func MotorCommand(amp, freq uint8) []byte {
	return []byte{TagMotor, amp, freq}
}

// ParseMotorCommand decodes an actuation payload on the motor side.
func ParseMotorCommand(payload []byte) (amp, freq uint8, err error) {
	if len(payload) < 3 {
		return 0, 0, fmt.Errorf("%w: motor command %d bytes", ErrShortReply, len(payload))
	}
	if payload[0] != TagMotor {
		return 0, 0, fmt.Errorf("%w: got %q want %q", ErrTagMismatch, payload[0], TagMotor)
	}
	return payload[1], payload[2], nil
}

func parseValueReply(want PeerID, tag byte, src PeerID, payload []byte) (uint8, error) {
	if src != want {
		return 0, fmt.Errorf("%w: got %s want %s", ErrPeerMismatch, src, want)
	}
	if len(payload) < 2 {
		return 0, fmt.Errorf("%w: %d bytes", ErrShortReply, len(payload))
	}
	if payload[0] != tag {
		return 0, fmt.Errorf("%w: got %q want %q", ErrTagMismatch, payload[0], tag)
	}
	return payload[1], nil
}
