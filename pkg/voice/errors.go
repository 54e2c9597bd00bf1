package voice

import "errors"

var (
	ErrWs              = errors.New("voice: websocket error")
	ErrSerde           = errors.New("voice: serde error")
	ErrUnexpectedFrame = errors.New("voice: unexpected frame")
	ErrTimeout         = errors.New("voice: timeout")
	ErrUnsupportedMode = errors.New("voice: unsupported encryption mode")
	ErrNoEndpoint      = errors.New("voice: endpoint unavailable, server is moving us")
	ErrShutdown        = errors.New("voice: shutdown")
	ErrFrameSize       = errors.New("voice: encoder output size mismatch")
	ErrFrameDropped    = errors.New("voice: outbound frame queue full, frame dropped")
)
