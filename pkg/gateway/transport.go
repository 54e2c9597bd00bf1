package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// DebugSink appends every frame crossing the wire to a file as
// "IN: <json>\n" / "OUT: <json>\n", fsyncing after each line.
type DebugSink struct {
	mu   sync.Mutex
	file interface {
		Write([]byte) (int, error)
		Sync() error
	}
}

// NewDebugSink wraps an already-open file (or any Write+Sync target).
func NewDebugSink(f interface {
	Write([]byte) (int, error)
	Sync() error
}) *DebugSink {
	return &DebugSink{file: f}
}

func (d *DebugSink) record(prefix string, raw []byte) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = d.file.Write([]byte(prefix))
	_, _ = d.file.Write(raw)
	_, _ = d.file.Write([]byte("\n"))
	_ = d.file.Sync()
}

// ConnectParams configures Connect. SessionID non-empty selects Resume over
// Identify.
type ConnectParams struct {
	URL              string
	Token            string
	Intents          Intents
	Properties       IdentifyProperties
	SessionID        string
	Seq              int64
	HandshakeTimeout time.Duration // default 5s
}

func (p ConnectParams) timeout() time.Duration {
	if p.HandshakeTimeout > 0 {
		return p.HandshakeTimeout
	}
	return 5 * time.Second
}

// Transport is one connected gateway socket: a frame codec over a websocket
// connection, past its handshake and in steady-state operation. Once Recv
// or Send observes a terminal error, every subsequent call returns that
// same error — it is a fused stream; the Supervisor, not the Transport,
// decides whether to open a new one.
type Transport struct {
	conn   *websocket.Conn
	logger *slog.Logger
	debug  *DebugSink

	closeOnce sync.Once
	terminal  atomic.Pointer[error]
}

// Connect performs the full connect procedure: dial, read Hello, send
// Identify or Resume, then read and return the first post-handshake event
// verbatim. The caller (a Supervisor) classifies that event and begins the
// steady-state duplex loop.
func Connect(ctx context.Context, p ConnectParams, logger *slog.Logger, debug *DebugSink) (*Transport, Event, time.Duration, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, p.URL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("gateway: dial: %w: %v", ErrWs, err)
	}
	conn.SetReadLimit(4 << 20)

	t := &Transport{conn: conn, logger: logger.With("component", "gateway"), debug: debug}

	helloCtx, helloCancel := context.WithTimeout(ctx, p.timeout())
	hello, err := t.recvRaw(helloCtx)
	helloCancel()
	if err != nil {
		_ = t.Close(websocket.StatusInternalError, "handshake failed")
		return nil, nil, 0, err
	}
	h, ok := hello.(HelloEvent)
	if !ok {
		_ = t.Close(websocket.StatusProtocolError, "expected hello")
		return nil, nil, 0, fmt.Errorf("gateway: connect: first frame was not hello: %w", ErrUnexpectedEvent)
	}
	interval := time.Duration(h.HeartbeatIntervalMS) * time.Millisecond

	var sendErr error
	if p.SessionID != "" {
		sendErr = t.sendRaw(ctx, Resume{Token: p.Token, SessionID: p.SessionID, Seq: p.Seq})
	} else {
		sendErr = t.sendRaw(ctx, Identify{
			Token:      p.Token,
			Properties: p.Properties,
			Intents:    p.Intents,
		})
	}
	if sendErr != nil {
		_ = t.Close(websocket.StatusInternalError, "handshake send failed")
		return nil, nil, 0, sendErr
	}

	firstCtx, firstCancel := context.WithTimeout(ctx, p.timeout())
	first, err := t.recvRaw(firstCtx)
	firstCancel()
	if err != nil {
		_ = t.Close(websocket.StatusInternalError, "handshake failed")
		return nil, nil, 0, err
	}

	return t, first, interval, nil
}

// Recv reads and decodes the next gateway frame.
func (t *Transport) Recv(ctx context.Context) (Event, error) {
	if err := t.terminalErr(); err != nil {
		return nil, err
	}
	ev, err := t.recvRaw(ctx)
	if err != nil {
		t.setTerminal(err)
		return nil, err
	}
	return ev, nil
}

// Send encodes and writes a command.
func (t *Transport) Send(ctx context.Context, cmd Command) error {
	if err := t.terminalErr(); err != nil {
		return err
	}
	if err := t.sendRaw(ctx, cmd); err != nil {
		t.setTerminal(err)
		return err
	}
	return nil
}

func (t *Transport) recvRaw(ctx context.Context) (Event, error) {
	typ, raw, err := t.conn.Read(ctx)
	if err != nil {
		return nil, classifyReadErr(err)
	}
	if typ != websocket.MessageText {
		return nil, ErrDecode
	}
	t.debug.record("IN: ", raw)
	ev, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("gateway: recv", "event", eventLabel(ev))
	return ev, nil
}

func (t *Transport) sendRaw(ctx context.Context, cmd Command) error {
	raw, err := Encode(cmd)
	if err != nil {
		return err
	}
	if err := t.conn.Write(ctx, websocket.MessageText, raw); err != nil {
		return fmt.Errorf("gateway: send: %w: %v", ErrWs, err)
	}
	t.debug.record("OUT: ", raw)
	t.logger.Debug("gateway: send", "op", cmd.opcode())
	return nil
}

// Close shuts down the underlying socket and fuses the stream: all
// subsequent Recv/Send calls return ErrShutdown.
func (t *Transport) Close(code websocket.StatusCode, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close(code, reason)
		t.setTerminal(ErrShutdown)
	})
	return err
}

func (t *Transport) terminalErr() error {
	if p := t.terminal.Load(); p != nil {
		return *p
	}
	return nil
}

func (t *Transport) setTerminal(err error) {
	t.terminal.CompareAndSwap(nil, &err)
}

func classifyReadErr(err error) error {
	code := websocket.CloseStatus(err)
	if code != -1 {
		return &CloseError{Code: int(code), Reason: err.Error(), Resumable: Resumable(int(code))}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gateway: recv: %w", ErrTimeout)
	}
	return fmt.Errorf("gateway: recv: %w: %v", ErrWs, err)
}

func eventLabel(ev Event) string {
	switch e := ev.(type) {
	case DispatchEvent:
		return e.Name
	case UnknownEvent:
		return "UNKNOWN(" + e.Name() + ")"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
