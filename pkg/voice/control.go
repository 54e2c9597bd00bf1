package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const connectTimeout = 5 * time.Second

// Credentials is the complete set of facts the main gateway must supply
// before a voice gateway connection can be opened.
type Credentials struct {
	GuildID   string
	UserID    string
	SessionID string
	Token     string
	Endpoint  string // host[:port], without scheme; "" means "not yet known"
}

func (c Credentials) complete() bool {
	return c.GuildID != "" && c.UserID != "" && c.SessionID != "" && c.Token != "" && c.Endpoint != ""
}

// Control drives the voice-gateway handshake and keeps the heartbeat
// alive; it hands the resulting secret key and SSRC to a Transport.
type Control struct {
	logger    *slog.Logger
	resumable bool
	sessionID string
}

// NewControl constructs a handshake driver. logger may be nil.
func NewControl(logger *slog.Logger) *Control {
	if logger == nil {
		logger = slog.Default()
	}
	return &Control{logger: logger}
}

// Connect opens the voice gateway, completes the full Identify/Ready/
// SelectProtocol/SessionDescription handshake on the supplied Transport,
// leaving it ready to send, and returns the heartbeat interval the server
// chose.
func (c *Control) Connect(ctx context.Context, creds Credentials, tr *Transport) (time.Duration, error) {
	if !creds.complete() {
		return 0, fmt.Errorf("voice: connect: incomplete credentials")
	}

	url := fmt.Sprintf("wss://%s/?v=4", trimPort443(creds.Endpoint))

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	cancel()
	if err != nil {
		return 0, fmt.Errorf("voice: dial: %w: %v", ErrWs, err)
	}
	conn.SetReadLimit(1 << 20)
	defer func() {
		if err != nil {
			_ = conn.Close(websocket.StatusInternalError, "handshake failed")
		}
	}()

	interval, err := c.readHello(ctx, conn)
	if err != nil {
		return 0, err
	}

	var ready ReadyPayload
	if c.resumable && c.sessionID != "" {
		if err = c.sendResume(ctx, conn, creds); err != nil {
			return 0, err
		}
		if err = c.awaitResumed(ctx, conn); err != nil {
			// Resume rejected; fall back to a fresh Identify.
			c.resumable = false
			if err = c.sendIdentify(ctx, conn, creds); err != nil {
				return 0, err
			}
			ready, err = c.awaitReady(ctx, conn)
			if err != nil {
				return 0, err
			}
		}
	} else {
		if err = c.sendIdentify(ctx, conn, creds); err != nil {
			return 0, err
		}
		ready, err = c.awaitReady(ctx, conn)
		if err != nil {
			return 0, err
		}
	}

	if !hasMode(ready.Modes, "xsalsa20_poly1305") {
		err = fmt.Errorf("voice: ready modes %v: %w", ready.Modes, ErrUnsupportedMode)
		return 0, err
	}

	c.sessionID = creds.SessionID
	c.resumable = true
	tr.ssrc = ready.SSRC

	external, err := tr.Discover(ctx)
	if err != nil {
		return 0, err
	}
	host, port, err := splitHostPort(external)
	if err != nil {
		return 0, err
	}

	if err = c.send(ctx, conn, SelectProtocol{
		Protocol: "udp",
		Data:     SelectProtocolData{Address: host, Port: port, Mode: "xsalsa20_poly1305"},
	}); err != nil {
		return 0, err
	}
	if err = c.send(ctx, conn, Speaking{Speaking: int(SpeakingMicrophone), Delay: 0, SSRC: ready.SSRC}); err != nil {
		return 0, err
	}

	desc, err := c.awaitSessionDescription(ctx, conn)
	if err != nil {
		return 0, err
	}
	if desc.Mode != "xsalsa20_poly1305" {
		err = fmt.Errorf("voice: session description mode %q: %w", desc.Mode, ErrUnsupportedMode)
		return 0, err
	}
	tr.SetSecretKey(desc.SecretKey)

	go c.heartbeatLoop(ctx, conn, interval)
	go c.discardLoop(ctx, conn)

	return interval, nil
}

func (c *Control) readHello(ctx context.Context, conn *websocket.Conn) (time.Duration, error) {
	_, raw, err := conn.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("voice: read hello: %w: %v", ErrWs, err)
	}
	op, d, err := Decode(raw)
	if err != nil {
		return 0, err
	}
	if op != OpHello {
		return 0, fmt.Errorf("voice: expected hello, got op %d: %w", op, ErrUnexpectedFrame)
	}
	var hello HelloPayload
	if err := json.Unmarshal(d, &hello); err != nil {
		return 0, fmt.Errorf("voice: decode hello: %w: %v", ErrSerde, err)
	}
	return time.Duration(hello.HeartbeatIntervalMS) * time.Millisecond, nil
}

func (c *Control) sendIdentify(ctx context.Context, conn *websocket.Conn, creds Credentials) error {
	return c.send(ctx, conn, Identify{ServerID: creds.GuildID, UserID: creds.UserID, SessionID: creds.SessionID, Token: creds.Token})
}

func (c *Control) sendResume(ctx context.Context, conn *websocket.Conn, creds Credentials) error {
	return c.send(ctx, conn, Resume{ServerID: creds.GuildID, SessionID: creds.SessionID, Token: creds.Token})
}

func (c *Control) awaitReady(ctx context.Context, conn *websocket.Conn) (ReadyPayload, error) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return ReadyPayload{}, fmt.Errorf("voice: await ready: %w: %v", ErrWs, err)
		}
		op, d, err := Decode(raw)
		if err != nil {
			return ReadyPayload{}, err
		}
		if op != OpReady {
			continue
		}
		var ready ReadyPayload
		if err := json.Unmarshal(d, &ready); err != nil {
			return ReadyPayload{}, fmt.Errorf("voice: decode ready: %w: %v", ErrSerde, err)
		}
		return ready, nil
	}
}

func (c *Control) awaitResumed(ctx context.Context, conn *websocket.Conn) error {
	_, raw, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("voice: await resumed: %w: %v", ErrWs, err)
	}
	op, _, err := Decode(raw)
	if err != nil {
		return err
	}
	if op != OpResumed {
		return fmt.Errorf("voice: expected resumed, got op %d: %w", op, ErrUnexpectedFrame)
	}
	return nil
}

func (c *Control) awaitSessionDescription(ctx context.Context, conn *websocket.Conn) (SessionDescriptionPayload, error) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return SessionDescriptionPayload{}, fmt.Errorf("voice: await session description: %w: %v", ErrWs, err)
		}
		op, d, err := Decode(raw)
		if err != nil {
			return SessionDescriptionPayload{}, err
		}
		if op != OpSessionDescription {
			continue
		}
		var desc SessionDescriptionPayload
		if err := json.Unmarshal(d, &desc); err != nil {
			return SessionDescriptionPayload{}, fmt.Errorf("voice: decode session description: %w: %v", ErrSerde, err)
		}
		return desc, nil
	}
}

func (c *Control) send(ctx context.Context, conn *websocket.Conn, cmd Command) error {
	raw, err := Encode(cmd)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		return fmt.Errorf("voice: send: %w: %v", ErrWs, err)
	}
	return nil
}

func (c *Control) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	if interval <= 0 {
		return
	}
	var count int64
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count++
			if err := c.send(ctx, conn, Heartbeat(count)); err != nil {
				c.logger.Warn("voice: heartbeat send failed", "error", err)
				return
			}
		}
	}
}

// discardLoop keeps reading frames after the handshake (heartbeat acks,
// resumed notices) so the connection stays alive even though the player
// only cares about the handshake outcome.
func (c *Control) discardLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func hasMode(modes []string, want string) bool {
	for _, m := range modes {
		if m == want {
			return true
		}
	}
	return false
}

func trimPort443(endpoint string) string {
	return strings.TrimSuffix(endpoint, ":443")
}

func splitHostPort(addr string) (string, int, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("voice: malformed external address %q", addr)
	}
	host := addr[:idx]
	var port int
	if _, err := fmt.Sscanf(addr[idx+1:], "%d", &port); err != nil {
		return "", 0, fmt.Errorf("voice: malformed external address port %q: %w", addr, err)
	}
	return host, port, nil
}
