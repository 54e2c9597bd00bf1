// Package voice implements the voice control plane, voice transport, audio
// pacer, and voice player: a second gateway dedicated to voice session
// negotiation, a UDP transport carrying encrypted opus frames, and the
// player actor that coordinates both.
package voice

import (
	"encoding/json"
	"fmt"
)

// Opcode is the voice-gateway wire envelope's "op" field. Identify, Resume,
// SelectProtocol, Speaking, and Heartbeat are the outbound opcodes this
// package sends; the remaining inbound opcodes (Ready, SessionDescription,
// Heartbeat Ack, Hello, Resumed) follow the numbering the v4 voice protocol
// has used since its introduction.
type Opcode int

const (
	OpIdentify           Opcode = 0
	OpSelectProtocol     Opcode = 1
	OpReady              Opcode = 2
	OpHeartbeat          Opcode = 3
	OpSessionDescription Opcode = 4
	OpSpeaking           Opcode = 5
	OpHeartbeatAck       Opcode = 6
	OpResume             Opcode = 7
	OpHello              Opcode = 8
	OpResumed            Opcode = 9
	OpClientDisconnect   Opcode = 13
)

// SpeakingFlag is the bitfield Speaking's "speaking" field carries.
type SpeakingFlag int

const (
	SpeakingMicrophone SpeakingFlag = 1 << 0
	SpeakingSoundshare SpeakingFlag = 1 << 1
	SpeakingPriority   SpeakingFlag = 1 << 2
)

type envelope struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Command is any outbound voice-gateway frame.
type Command interface{ opcode() int }

// Identify opens a brand-new voice session.
type Identify struct {
	ServerID  string `json:"server_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

func (Identify) opcode() int { return int(OpIdentify) }

// Resume re-attaches to a previously established voice session.
type Resume struct {
	ServerID  string `json:"server_id"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

func (Resume) opcode() int { return int(OpResume) }

// SelectProtocolData is the nested "data" object of SelectProtocol.
type SelectProtocolData struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Mode    string `json:"mode"`
}

// SelectProtocol finalizes UDP transport negotiation after IP discovery.
type SelectProtocol struct {
	Protocol string             `json:"protocol"`
	Data     SelectProtocolData `json:"data"`
}

func (SelectProtocol) opcode() int { return int(OpSelectProtocol) }

// Speaking announces (or revokes) the ability to send audio.
type Speaking struct {
	Speaking int    `json:"speaking"`
	Delay    int    `json:"delay"`
	SSRC     uint32 `json:"ssrc"`
}

func (Speaking) opcode() int { return int(OpSpeaking) }

// Heartbeat is a monotonically increasing counter; Count increments each
// send.
type Heartbeat int64

func (Heartbeat) opcode() int { return int(OpHeartbeat) }

// Encode serializes an outbound voice-gateway command.
func Encode(cmd Command) ([]byte, error) {
	b, err := json.Marshal(struct {
		Op int `json:"op"`
		D  any `json:"d"`
	}{Op: cmd.opcode(), D: cmd})
	if err != nil {
		return nil, fmt.Errorf("voice: encode: %w: %v", ErrSerde, err)
	}
	return b, nil
}

// HelloPayload is op=8's payload.
type HelloPayload struct {
	HeartbeatIntervalMS float64 `json:"heartbeat_interval"`
}

// ReadyPayload is op=2's payload: ssrc, discovered address, and the
// server's supported encryption modes.
type ReadyPayload struct {
	SSRC  uint32   `json:"ssrc"`
	IP    string   `json:"ip"`
	Port  int      `json:"port"`
	Modes []string `json:"modes"`
}

// SessionDescriptionPayload is op=4's payload carrying the secret key.
type SessionDescriptionPayload struct {
	Mode      string   `json:"mode"`
	SecretKey [32]byte `json:"secret_key"`
}

// Decode parses one voice-gateway frame and returns its opcode plus raw
// payload; callers that already know which step of the handshake they are
// in decode the payload against the matching struct above.
func Decode(raw []byte) (Opcode, json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, nil, fmt.Errorf("voice: decode: %w: %v", ErrSerde, err)
	}
	return env.Op, env.D, nil
}
