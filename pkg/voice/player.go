package voice

import (
	"context"
	"log/slog"
	"time"
)

// PlayerState is the voice player's lifecycle state.
type PlayerState int

const (
	Idle PlayerState = iota
	Connecting
	Connected
	Shutdown
)

func (s PlayerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// PlayerEventKind enumerates the notifications the player surfaces to the
// application.
type PlayerEventKind int

const (
	PlayerConnected PlayerEventKind = iota
	PlayerDisconnected
	PlayerReconnecting
	PlayerConnectError
	PlayerFinished
)

// PlayerEvent is delivered to the application's subscriber callback.
type PlayerEvent struct {
	Kind      PlayerEventKind
	ChannelID string
	Err       error
}

// GatewayCommander is the minimal main-gateway surface the player needs:
// sending UpdateVoiceState. It is satisfied by *gateway.Supervisor's
// outbound command channel in pkg/client.
type GatewayCommander interface {
	UpdateVoiceState(ctx context.Context, guildID string, channelID *string) error
}

// Update is one of the guild-projection-sourced facts the player reacts
// to: a voice-state-update or voice-server-update for the self user, or a
// guild online/offline/session-invalidated transition.
type Update struct {
	Kind          UpdateKind
	SelfSessionID string
	SelfChannelID *string // nil means "not in a voice channel"
	VoiceToken    string
	VoiceEndpoint *string // nil means "server is moving us"
}

type UpdateKind int

const (
	UpdateVoiceState UpdateKind = iota
	UpdateVoiceServer
	UpdateGuildOnline
	UpdateGuildOffline
	UpdateSessionInvalidated
)

// ControlKind enumerates the application-issued commands the player acts on.
type ControlKind int

const (
	ControlConnect ControlKind = iota
	ControlDisconnect
	ControlShutdown
	ControlPlay
	ControlStop
)

type ControlCommand struct {
	Kind      ControlKind
	ChannelID string
	Source    PCMSource
}

// handshakeResult is the internal message the background control-plane
// goroutine reports back to the player's single actor loop.
type handshakeResult struct {
	channelID string
	transport *Transport
	err       error
}

// Player is the application-facing actor coordinating the control plane,
// transport, and pacer behind a single state machine. All mutable state
// is owned by the goroutine running Run; every external interaction goes
// through a channel, so no field is ever touched from two goroutines.
type Player struct {
	guildID string
	userID  string
	gw      GatewayCommander
	logger  *slog.Logger
	emit    func(PlayerEvent)

	controls  chan ControlCommand
	updates   chan Update
	handshake chan handshakeResult
	frames    chan Frame

	state         PlayerState
	channelID     string
	creds         Credentials
	connectTimer  *time.Timer
	connectExpiry <-chan time.Time
	transport     *Transport
	pacer         *Pacer
	reconnectWant bool
}

// NewPlayer constructs an idle player for one guild. Call Run in its own
// goroutine to start the actor loop.
func NewPlayer(guildID, userID string, gw GatewayCommander, emit func(PlayerEvent), logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		guildID:   guildID,
		userID:    userID,
		gw:        gw,
		emit:      emit,
		logger:    logger,
		state:     Idle,
		controls:  make(chan ControlCommand, 4),
		updates:   make(chan Update, 4),
		handshake: make(chan handshakeResult, 1),
		frames:    make(chan Frame, 4),
	}
}

// Controls returns the channel the application submits control commands on.
func (p *Player) Controls() chan<- ControlCommand { return p.controls }

// Updates returns the channel the guild projection feeds voice-relevant
// facts into.
func (p *Player) Updates() chan<- Update { return p.updates }

// State reports the player's current lifecycle state. Only safe to call
// from the Run goroutine or after it has exited.
func (p *Player) State() PlayerState { return p.state }

// Run is the player's single actor loop; it owns every mutable field and
// exits when ctx is cancelled or a shutdown control arrives.
func (p *Player) Run(ctx context.Context) {
	for {
		var timerC <-chan time.Time
		if p.connectExpiry != nil {
			timerC = p.connectExpiry
		}
		select {
		case <-ctx.Done():
			p.teardown()
			return
		case cmd := <-p.controls:
			if p.applyControl(ctx, cmd) {
				return
			}
		case u := <-p.updates:
			p.applyUpdate(ctx, u)
		case hs := <-p.handshake:
			p.applyHandshake(hs)
		case <-timerC:
			p.connectExpiry = nil
			if p.state == Connecting {
				p.emit(PlayerEvent{Kind: PlayerConnectError, ChannelID: p.channelID, Err: context.DeadlineExceeded})
				p.state = Idle
			}
		case f := <-p.frames:
			p.applyFrame(ctx, f)
		}
	}
}

func (p *Player) applyControl(ctx context.Context, cmd ControlCommand) (shutdown bool) {
	switch cmd.Kind {
	case ControlConnect:
		p.onConnect(ctx, cmd.ChannelID)
	case ControlDisconnect:
		p.teardown()
		p.emit(PlayerEvent{Kind: PlayerDisconnected, ChannelID: p.channelID})
		p.state = Idle
	case ControlShutdown:
		p.teardown()
		p.sendVoiceState(ctx, nil)
		p.state = Shutdown
		return true
	case ControlPlay:
		p.startPacer(cmd.Source)
	case ControlStop:
		p.pacer = nil
	}
	return false
}

func (p *Player) onConnect(ctx context.Context, channelID string) {
	if p.state == Connected && p.channelID == channelID {
		p.emit(PlayerEvent{Kind: PlayerConnected, ChannelID: channelID})
		return
	}
	p.teardown()
	p.channelID = channelID
	p.reconnectWant = true
	p.state = Connecting
	p.creds = Credentials{GuildID: p.guildID, UserID: p.userID}

	cid := channelID
	p.sendVoiceState(ctx, &cid)

	timer := time.NewTimer(connectTimeout)
	p.connectExpiry = timer.C
	p.connectTimer = timer
}

func (p *Player) sendVoiceState(ctx context.Context, channelID *string) {
	if p.gw == nil {
		return
	}
	if err := p.gw.UpdateVoiceState(ctx, p.guildID, channelID); err != nil {
		p.logger.Warn("voice: update_voice_state failed", "error", err)
	}
}

func (p *Player) applyUpdate(ctx context.Context, u Update) {
	switch u.Kind {
	case UpdateVoiceState:
		if u.SelfChannelID == nil {
			p.teardown()
			p.emit(PlayerEvent{Kind: PlayerDisconnected, ChannelID: p.channelID})
			p.state = Idle
			return
		}
		p.creds.SessionID = u.SelfSessionID
		p.tryOpenControlPlane(ctx)
	case UpdateVoiceServer:
		p.creds.Token = u.VoiceToken
		if u.VoiceEndpoint == nil {
			if p.state == Connected || p.state == Connecting {
				p.teardown()
				p.emit(PlayerEvent{Kind: PlayerDisconnected, ChannelID: p.channelID})
				p.state = Idle
			}
			return
		}
		p.creds.Endpoint = *u.VoiceEndpoint
		p.tryOpenControlPlane(ctx)
	case UpdateGuildOffline:
		if p.state == Connected {
			p.state = Connecting
			p.emit(PlayerEvent{Kind: PlayerReconnecting, ChannelID: p.channelID})
		}
	case UpdateGuildOnline:
		if p.reconnectWant && p.state == Connecting && p.channelID != "" {
			p.onConnect(ctx, p.channelID)
		}
	case UpdateSessionInvalidated:
		p.teardown()
		p.state = Idle
	}
}

// tryOpenControlPlane spawns the handshake in the background (it blocks on
// network I/O) and reports the outcome back through p.handshake, which the
// Run loop picks up like any other message.
func (p *Player) tryOpenControlPlane(ctx context.Context) {
	if p.state != Connecting || !p.creds.complete() {
		return
	}
	creds := p.creds
	channelID := p.channelID
	go func() {
		tr, err := NewTransport(creds.Endpoint, 0)
		if err != nil {
			p.handshake <- handshakeResult{channelID: channelID, err: err}
			return
		}
		handshakeCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if _, err := NewControl(p.logger).Connect(handshakeCtx, creds, tr); err != nil {
			tr.Close()
			p.handshake <- handshakeResult{channelID: channelID, err: err}
			return
		}
		p.handshake <- handshakeResult{channelID: channelID, transport: tr}
	}()
}

func (p *Player) applyHandshake(hs handshakeResult) {
	if hs.channelID != p.channelID || p.state != Connecting {
		// Stale result from a superseded connect attempt.
		if hs.transport != nil {
			hs.transport.Close()
		}
		return
	}
	if hs.err != nil {
		p.emit(PlayerEvent{Kind: PlayerConnectError, ChannelID: p.channelID, Err: hs.err})
		p.state = Idle
		return
	}
	if p.connectTimer != nil {
		p.connectTimer.Stop()
		p.connectTimer = nil
		p.connectExpiry = nil
	}
	p.transport = hs.transport
	p.state = Connected
	p.emit(PlayerEvent{Kind: PlayerConnected, ChannelID: p.channelID})
	go hs.transport.ReadLoop(context.Background())
	go hs.transport.RunSender()
}

func (p *Player) startPacer(src PCMSource) {
	pacer, err := NewPacer(src, 2, 64000)
	if err != nil {
		p.logger.Warn("voice: pacer construction failed", "error", err)
		return
	}
	p.pacer = pacer
	go p.pumpPacer(pacer)
}

// pumpPacer runs in its own goroutine (pacing sleeps), pushing frames back
// to the actor loop rather than touching player state directly. Regular
// frames are a non-blocking try-send: if the actor loop is busy and
// p.frames is full, the frame is dropped rather than stalling the pacer's
// real-time clock. The terminal Finished frame is sent exactly once per
// play session, so it blocks — dropping it would silently swallow the
// PlayerFinished notification.
func (p *Player) pumpPacer(pacer *Pacer) {
	for {
		frame, err := pacer.Next()
		if err != nil {
			p.logger.Warn("voice: pacer error", "error", err)
			return
		}
		if frame.Finished {
			p.frames <- frame
			return
		}
		select {
		case p.frames <- frame:
		default:
			p.logger.Warn("voice: frame dropped, player actor busy")
		}
	}
}

func (p *Player) applyFrame(ctx context.Context, f Frame) {
	if f.Finished {
		p.pacer = nil
		p.emit(PlayerEvent{Kind: PlayerFinished, ChannelID: p.channelID})
		return
	}
	if p.transport == nil {
		return
	}
	// SendFrame itself never blocks: it enqueues onto the transport's
	// bounded outbound queue, written by a separate sender goroutine, and
	// reports ErrFrameDropped when that queue is full.
	if err := p.transport.SendFrame(ctx, f.Opus); err != nil {
		p.logger.Warn("voice: send frame failed", "error", err)
	}
}

func (p *Player) teardown() {
	if p.connectTimer != nil {
		p.connectTimer.Stop()
		p.connectTimer = nil
		p.connectExpiry = nil
	}
	if p.transport != nil {
		p.transport.Close()
		p.transport = nil
	}
	p.pacer = nil
	p.reconnectWant = false
}
