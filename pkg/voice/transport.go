package voice

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	ipDiscoveryTimeout = 10 * time.Second
	frameStepTimestamp = 960 // 20ms at 48kHz
	outboundQueueDepth = 8
)

// Transport is the per-session UDP socket: it performs IP discovery once,
// then encrypts and sends opus frames under a secret key delivered
// asynchronously by the control plane. Outbound frames are queued on a
// bounded channel and written by a dedicated sender goroutine, so a
// stalled socket backs up the queue instead of blocking whatever called
// SendFrame.
type Transport struct {
	conn     *net.UDPConn
	remote   *net.UDPAddr
	ssrc     uint32
	secretCh chan [32]byte
	secret   *[32]byte

	sequence  uint16
	timestamp uint32

	outbound chan []byte
	done     chan struct{}

	packetsReceived uint64
}

// NewTransport binds a fresh UDP socket to 0.0.0.0:0 and resolves the
// voice server's advertised UDP endpoint.
func NewTransport(serverAddr string, ssrc uint32) (*Transport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("voice: udp listen: %w", err)
	}
	remote, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("voice: resolve voice server addr: %w", err)
	}
	return &Transport{
		conn:     conn,
		remote:   remote,
		ssrc:     ssrc,
		secretCh: make(chan [32]byte, 1),
		outbound: make(chan []byte, outboundQueueDepth),
		done:     make(chan struct{}),
	}, nil
}

// RunSender drains the outbound queue and performs the blocking UDP write.
// Call it in its own goroutine once the transport is connected; it returns
// when Close is called or a write fails.
func (t *Transport) RunSender() {
	for {
		select {
		case <-t.done:
			return
		case packet := <-t.outbound:
			if _, err := t.conn.WriteToUDP(packet, t.remote); err != nil {
				return
			}
		}
	}
}

// Discover performs the IP-discovery handshake and returns the address
// this socket is externally observed at, as reported by the voice server.
func (t *Transport) Discover(ctx context.Context) (externalAddr string, err error) {
	out := make([]byte, 74)
	binary.BigEndian.PutUint16(out[0:2], 1)
	binary.BigEndian.PutUint16(out[2:4], 70)
	binary.BigEndian.PutUint32(out[4:8], t.ssrc)
	// bytes [8:72] reserved for the reply's IP, [72:74] reserved for port.

	if _, err := t.conn.WriteToUDP(out, t.remote); err != nil {
		return "", fmt.Errorf("voice: ip discovery send: %w", err)
	}

	deadline := time.Now().Add(ipDiscoveryTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("voice: set read deadline: %w", err)
	}
	defer t.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 74)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return "", fmt.Errorf("voice: ip discovery recv: %w: %v", ErrTimeout, err)
	}
	if n < 74 {
		return "", fmt.Errorf("voice: ip discovery reply too short (%d bytes): %w", n, ErrUnexpectedFrame)
	}
	if typ := binary.BigEndian.Uint16(buf[0:2]); typ != 2 {
		return "", fmt.Errorf("voice: ip discovery reply type %d, want 2: %w", typ, ErrUnexpectedFrame)
	}

	ip := parseNulTerminatedIP(buf[8:72])
	port := binary.BigEndian.Uint16(buf[72:74])
	return fmt.Sprintf("%s:%d", ip, port), nil
}

func parseNulTerminatedIP(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return string(b[:end])
}

// SetSecretKey delivers the 32-byte secret key produced by the control
// plane's SessionDescription step. It is safe to call exactly once.
func (t *Transport) SetSecretKey(key [32]byte) {
	select {
	case t.secretCh <- key:
	default:
	}
}

// awaitSecret blocks until the secret key arrives, memoizing it.
func (t *Transport) awaitSecret(ctx context.Context) (*[32]byte, error) {
	if t.secret != nil {
		return t.secret, nil
	}
	select {
	case key := <-t.secretCh:
		t.secret = &key
		return t.secret, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendFrame encrypts one opus frame and enqueues it on the outbound queue
// for the sender goroutine to write. Sequence and timestamp advance and
// wrap per spec: sequence wraps at 2^16, timestamp at 2^32, and timestamp
// increments by 960 per 20ms frame. It waits (bounded by ctx) until the
// secret key has arrived; after that it never blocks: a full queue reports
// ErrFrameDropped rather than waiting on the socket, which is acceptable
// for real-time audio — one lost frame beats stalling the caller.
func (t *Transport) SendFrame(ctx context.Context, opus []byte) error {
	key, err := t.awaitSecret(ctx)
	if err != nil {
		return err
	}

	var header [12]byte
	header[0] = 0x80
	header[1] = 0x78
	binary.BigEndian.PutUint16(header[2:4], t.sequence)
	binary.BigEndian.PutUint32(header[4:8], t.timestamp)
	binary.BigEndian.PutUint32(header[8:12], t.ssrc)

	var nonce [24]byte
	copy(nonce[:12], header[:])

	packet := secretbox.Seal(header[:], opus, &nonce, key)

	t.sequence++                       // wraps at 2^16 by virtue of uint16 overflow
	t.timestamp += frameStepTimestamp  // wraps at 2^32 by virtue of uint32 overflow

	select {
	case t.outbound <- packet:
		return nil
	default:
		return ErrFrameDropped
	}
}

// ReadLoop discards inbound datagrams, counting them; the library never
// decodes received audio.
func (t *Transport) ReadLoop(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		_ = t.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		if n > 0 {
			t.packetsReceived++
		}
	}
}

// PacketsReceived reports the number of inbound datagrams seen so far.
func (t *Transport) PacketsReceived() uint64 { return t.packetsReceived }

// Close releases the UDP socket and stops the sender goroutine.
func (t *Transport) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return t.conn.Close()
}
