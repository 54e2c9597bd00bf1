package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// envelope is the wire shape of every gateway frame in both directions.
type envelope struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  *string         `json:"t,omitempty"`
}

// Event is any decoded inbound gateway frame. Implementations are the
// closed set below plus DispatchEvent's open-ended Name field: callers
// switch on concrete type for Hello/HeartbeatAck/InvalidSession/Dispatch/
// Unknown, and switch on DispatchEvent.Name for individual dispatch types,
// with any unrecognized name simply falling through their default case.
type Event interface {
	// Seq is the envelope's sequence number, or nil if the frame carried
	// none. Only Dispatch frames are expected to carry one in practice.
	Seq() *int64
}

// HelloEvent is op=10: the server's handshake greeting.
type HelloEvent struct {
	HeartbeatIntervalMS int64
	seq                 *int64
}

func (e HelloEvent) Seq() *int64 { return e.seq }

// HeartbeatAckEvent is op=11: acknowledgement of a prior Heartbeat.
type HeartbeatAckEvent struct {
	seq *int64
}

func (e HeartbeatAckEvent) Seq() *int64 { return e.seq }

// ReconnectEvent is op=7: the server requests a reconnect (resume if possible).
type ReconnectEvent struct {
	seq *int64
}

func (e ReconnectEvent) Seq() *int64 { return e.seq }

// InvalidSessionEvent is op=9: the session could not be resumed or
// established; Resumable indicates whether the client may retry a Resume
// rather than starting a fresh Identify.
type InvalidSessionEvent struct {
	Resumable bool
	seq       *int64
}

func (e InvalidSessionEvent) Seq() *int64 { return e.seq }

// DispatchEvent is op=0 with a named type: a server-sent domain event.
// Data is the raw "d" payload, left undecoded here since its shape is
// named-type-specific; callers decode it with json.Unmarshal against the
// struct matching Name (see events.go for the recognized set).
type DispatchEvent struct {
	Name string
	Data json.RawMessage
	seq  *int64
}

func (e DispatchEvent) Seq() *int64 { return e.seq }

// UnknownEvent is any opcode this package does not recognize. Op holds the
// numeric opcode.
type UnknownEvent struct {
	Op  int
	seq *int64
}

func (e UnknownEvent) Seq() *int64 { return e.seq }

// Name returns the decimal string form of the unrecognized opcode.
func (e UnknownEvent) Name() string { return strconv.Itoa(e.Op) }

// Decode parses one gateway wire frame into its typed Event, dispatching on
// the (op, t) pair.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("gateway: decode: %w: %v", ErrSerde, err)
	}

	switch env.Op {
	case OpHello:
		var body struct {
			HeartbeatInterval int64 `json:"heartbeat_interval"`
		}
		if err := json.Unmarshal(env.D, &body); err != nil {
			return nil, fmt.Errorf("gateway: decode hello: %w: %v", ErrSerde, err)
		}
		return HelloEvent{HeartbeatIntervalMS: body.HeartbeatInterval, seq: env.S}, nil
	case OpHeartbeatAck:
		return HeartbeatAckEvent{seq: env.S}, nil
	case OpReconnect:
		return ReconnectEvent{seq: env.S}, nil
	case OpInvalidSession:
		var resumable bool
		if err := json.Unmarshal(env.D, &resumable); err != nil {
			return nil, fmt.Errorf("gateway: decode invalid session: %w: %v", ErrSerde, err)
		}
		return InvalidSessionEvent{Resumable: resumable, seq: env.S}, nil
	case OpDispatch:
		if env.T == nil {
			return nil, fmt.Errorf("gateway: decode: dispatch frame missing t: %w", ErrUnexpectedEvent)
		}
		return DispatchEvent{Name: *env.T, Data: env.D, seq: env.S}, nil
	default:
		return UnknownEvent{Op: int(env.Op), seq: env.S}, nil
	}
}

// Encode serializes an outbound command into its wire envelope.
func Encode(cmd Command) ([]byte, error) {
	b, err := json.Marshal(struct {
		Op int `json:"op"`
		D  any `json:"d"`
	}{Op: cmd.opcode(), D: cmd})
	if err != nil {
		return nil, fmt.Errorf("gateway: encode: %w: %v", ErrSerde, err)
	}
	return b, nil
}
