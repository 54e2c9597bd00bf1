package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

// LifecycleKind tags the single callback the Supervisor drives the
// application with.
type LifecycleKind int

const (
	Online LifecycleKind = iota
	Offline
	SessionInvalidated
	EventReceived
	ShutdownComplete
)

// Lifecycle is one notification delivered to a Supervisor's callback.
type Lifecycle struct {
	Kind  LifecycleKind
	Event Event // set only when Kind == EventReceived
}

// Identity is the user/application identity recorded from a Ready event.
type Identity struct {
	UserID        string
	ApplicationID string
}

// SupervisorConfig configures a Supervisor's reconnect loop.
type SupervisorConfig struct {
	URL        string
	Token      string
	Intents    Intents
	Properties IdentifyProperties

	// Commands is drained by the write half between heartbeats. Callers
	// own its capacity; a bound of 8 is recommended.
	Commands <-chan Command

	// OnLifecycle is invoked synchronously from the supervisor's own
	// goroutine for every notification; it must not block.
	OnLifecycle func(Lifecycle)

	Logger *slog.Logger
	Debug  *DebugSink

	// RetryDelay overrides the flat reconnect backoff (default 3s).
	// TODO: replace the flat backoff with an exponential one once a
	// concrete retry-storm incident justifies the added complexity.
	RetryDelay time.Duration
}

// Supervisor is the long-running task owning one gateway session's
// reconnect loop. It owns exactly one Transport at a time; session id and
// the shared sequence counter survive across reconnects except when a
// session is invalidated.
type Supervisor struct {
	cfg SupervisorConfig

	seq       sharedSeq
	sessionID string
	identity  Identity

	wasOnline bool
}

// sharedSeq is the single-writer (read half), many-reader (write half via
// heartbeat) sequence counter.
type sharedSeq struct {
	v int64
}

func (s *sharedSeq) store(n int64) {
	if n > s.v {
		s.v = n
	}
}

func (s *sharedSeq) load() int64 { return s.v }

// NewSupervisor constructs a Supervisor. Run must be called to drive it.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	return &Supervisor{cfg: cfg}
}

// sessionInvalidatedErr signals that a mid-stream InvalidSession frame (or
// a non-resumable close) ended the current connection; the session id must
// be forgotten before the next connect attempt.
type sessionInvalidatedErr struct{ resumable bool }

func (e *sessionInvalidatedErr) Error() string { return "gateway: session invalidated" }

// Run drives the reconnect loop until ctx is cancelled, then performs an
// orderly shutdown and fires a final ShutdownComplete notification.
func (s *Supervisor) Run(ctx context.Context) {
	logger := s.cfg.Logger
	defer s.cfg.OnLifecycle(Lifecycle{Kind: ShutdownComplete})

	for {
		if ctx.Err() != nil {
			return
		}

		tr, first, interval, err := Connect(ctx, ConnectParams{
			URL:        s.cfg.URL,
			Token:      s.cfg.Token,
			Intents:    s.cfg.Intents,
			Properties: s.cfg.Properties,
			SessionID:  s.sessionID,
			Seq:        s.seq.load(),
		}, logger, s.cfg.Debug)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("gateway: connect failed", "error", err)
			s.fireOffline()
			if !sleepOrDone(ctx, s.cfg.RetryDelay) {
				return
			}
			continue
		}

		switch ev := first.(type) {
		case DispatchEvent:
			if ev.Name == DispatchReady {
				var ready Ready
				if decErr := decodeInto(ev.Data, &ready); decErr == nil {
					s.sessionID = ready.SessionID
					s.identity = Identity{UserID: ready.User.ID.String(), ApplicationID: ready.Application.ID.String()}
				}
				s.cfg.OnLifecycle(Lifecycle{Kind: EventReceived, Event: ev})
				s.cfg.OnLifecycle(Lifecycle{Kind: Online})
				s.wasOnline = true
			} else {
				// Resumed, or a replayed missed dispatch: either way the
				// session is live again, but the event itself still needs
				// routing to guild-scoped subscribers.
				s.cfg.OnLifecycle(Lifecycle{Kind: EventReceived, Event: ev})
				s.cfg.OnLifecycle(Lifecycle{Kind: Online})
				s.wasOnline = true
			}
		case InvalidSessionEvent:
			s.sessionID = ""
			s.seq = sharedSeq{}
			s.cfg.OnLifecycle(Lifecycle{Kind: SessionInvalidated})
			_ = tr.Close(websocket.StatusNormalClosure, "invalid session")
			continue
		default:
			s.cfg.OnLifecycle(Lifecycle{Kind: EventReceived, Event: ev})
			s.cfg.OnLifecycle(Lifecycle{Kind: Online})
			s.wasOnline = true
		}

		runErr := s.duplex(ctx, tr, interval)

		var invalidated *sessionInvalidatedErr
		switch {
		case errors.Is(runErr, ErrShutdown) || ctx.Err() != nil:
			_ = tr.Close(websocket.StatusNormalClosure, "shutdown")
			return
		case errors.As(runErr, &invalidated):
			if !invalidated.resumable {
				s.sessionID = ""
				s.seq = sharedSeq{}
			}
			s.fireOffline()
			_ = tr.Close(websocket.StatusNormalClosure, "session invalidated")
			s.cfg.OnLifecycle(Lifecycle{Kind: SessionInvalidated})
			continue
		default:
			logger.Warn("gateway: connection lost", "error", runErr)
			s.fireOffline()
			_ = tr.Close(websocket.StatusAbnormalClosure, "transport error")
			if !sleepOrDone(ctx, s.cfg.RetryDelay) {
				return
			}
			continue
		}
	}
}

func (s *Supervisor) fireOffline() {
	if s.wasOnline {
		s.cfg.OnLifecycle(Lifecycle{Kind: Offline})
		s.wasOnline = false
	}
}

// duplex runs the steady-state read/write race: first error wins, the
// other half is cancelled via the shared errgroup context.
func (s *Supervisor) duplex(ctx context.Context, tr *Transport, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.readHalf(gctx, tr) })
	g.Go(func() error { return s.writeHalf(gctx, tr, interval) })

	return g.Wait()
}

func (s *Supervisor) readHalf(ctx context.Context, tr *Transport) error {
	for {
		ev, err := tr.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ErrShutdown
			}
			var ce *CloseError
			if errors.As(err, &ce) {
				return &sessionInvalidatedErrIf{ce}
			}
			return err
		}
		if sv := ev.Seq(); sv != nil {
			s.seq.store(*sv)
		}
		if inv, ok := ev.(InvalidSessionEvent); ok {
			s.cfg.OnLifecycle(Lifecycle{Kind: EventReceived, Event: ev})
			return &sessionInvalidatedErr{resumable: inv.Resumable}
		}
		s.cfg.OnLifecycle(Lifecycle{Kind: EventReceived, Event: ev})
	}
}

// sessionInvalidatedErrIf turns a non-resumable close frame into the same
// session-invalidation signal a mid-stream InvalidSession frame produces.
type sessionInvalidatedErrIf struct{ close *CloseError }

func (e *sessionInvalidatedErrIf) Error() string { return e.close.Error() }
func (e *sessionInvalidatedErrIf) Unwrap() error { return e.close }
func (e *sessionInvalidatedErrIf) As(target any) bool {
	if t, ok := target.(**sessionInvalidatedErr); ok && !e.close.Resumable {
		*t = &sessionInvalidatedErr{resumable: false}
		return true
	}
	return false
}

func (s *Supervisor) writeHalf(ctx context.Context, tr *Transport, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ErrShutdown
		case <-ticker.C:
			if err := tr.Send(ctx, Heartbeat(s.seq.load())); err != nil {
				return err
			}
		case cmd, ok := <-s.cfg.Commands:
			if !ok {
				// Commands channel closed: keep heartbeating, nothing
				// more to forward.
				s.cfg.Commands = nil
				continue
			}
			if err := tr.Send(ctx, cmd); err != nil {
				return err
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
