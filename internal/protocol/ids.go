package protocol

// PeerID addresses one logical node on the shared serial bus.
type PeerID uint8

const (
	PeerDecision  PeerID = 0
	PeerHeartbeat PeerID = 1
	PeerCrying    PeerID = 2
	PeerMotor     PeerID = 3
)

func (p PeerID) String() string {
	switch p {
	case PeerDecision:
		return "decision"
	case PeerHeartbeat:
		return "heartbeat"
	case PeerCrying:
		return "crying"
	case PeerMotor:
		return "motor"
	default:
		return "unknown"
	}
}

// Payload tags. The first payload byte identifies the exchange kind; a
// reply carries the same tag as its request.
const (
	TagPing      byte = 'A'
	TagHeartbeat byte = 'H'
	TagCrying    byte = 'C'
	TagMotor     byte = 'M'
)

// MaxPayload is the frame payload cap in bytes. A declared length above
// the cap is truncated on receive (accepted data loss).
const MaxPayload = 5
