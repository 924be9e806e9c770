package protocol

import "errors"

var (
	ErrShortReply   = errors.New("protocol: reply payload too short")
	ErrTagMismatch  = errors.New("protocol: payload tag mismatch")
	ErrPeerMismatch = errors.New("protocol: reply from unexpected peer")
	ErrPeerMissing  = errors.New("protocol: peer did not answer boot ping")
)
