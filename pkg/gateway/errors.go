package gateway

import "errors"

// Sentinel errors a Supervisor classifies to decide whether to resume,
// reconnect as new, or stop.
var (
	// ErrWs wraps a transport-layer error from the underlying socket.
	ErrWs = errors.New("gateway: transport error")

	// ErrUnexpectedEvent is returned when a handshake step reads a frame
	// other than the one it required (e.g. anything but Hello as the
	// very first frame).
	ErrUnexpectedEvent = errors.New("gateway: unexpected event")

	// ErrClose indicates the server closed the connection with a close
	// frame; Resumable reports whether the non-resumable-close rule
	// applies to that frame's code.
	ErrClose = errors.New("gateway: connection closed")

	// ErrDecode is returned for a non-text frame where text was expected.
	ErrDecode = errors.New("gateway: unexpected frame type")

	// ErrSerde is returned for a malformed JSON payload.
	ErrSerde = errors.New("gateway: malformed payload")

	// ErrTimeout is returned when a handshake step exceeds its deadline.
	ErrTimeout = errors.New("gateway: timeout")

	// ErrShutdown is returned by Transport operations after Close has
	// been called: the fused-stream sticky terminal state.
	ErrShutdown = errors.New("gateway: shut down")
)

// CloseError carries the close-frame code/reason when the server hung up
// with one, and whether that close permits a Resume attempt.
type CloseError struct {
	Code      int
	Reason    string
	Resumable bool
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return ErrClose.Error()
	}
	return ErrClose.Error() + ": " + e.Reason
}

func (e *CloseError) Unwrap() error { return ErrClose }

// nonResumableCloseCodes are gateway close codes after which a Resume must
// not be attempted: the session itself is gone, not just the socket.
var nonResumableCloseCodes = map[int]bool{
	4004: true, // authentication failed
	4010: true, // invalid shard
	4011: true, // sharding required
	4012: true, // invalid API version
	4013: true, // invalid intents
	4014: true, // disallowed intents
}

// Resumable classifies a gateway close code.
func Resumable(code int) bool {
	return !nonResumableCloseCodes[code]
}
