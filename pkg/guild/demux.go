package guild

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
)

// availabilityEvent is an internal sentinel carried on a guild's mailbox
// alongside real dispatch events, so a Projection learns of an
// online/offline transition in the same order the events that caused it
// arrived. It trivially satisfies gateway.Event (whose only method is
// Seq) without gateway needing to know guild package exists.
type availabilityEvent struct{ online bool }

func (availabilityEvent) Seq() *int64 { return nil }

// guildSnapshotEvent carries a fully decoded GuildCreate/GuildUpdate
// payload to a Projection, avoiding a wasteful re-marshal back to JSON
// once the Demux has already decoded it to route on guild id.
type guildSnapshotEvent struct{ guild types.Guild }

func (guildSnapshotEvent) Seq() *int64 { return nil }

// entry is the guild registry's per-guild bookkeeping: availability plus
// an optional mailbox sender.
type entry struct {
	available bool
	mailbox   *mailbox // nil once the projection has disconnected
}

// Demux is the event demultiplexer and guild registry. It consumes a
// Supervisor's lifecycle stream, maintains guild availability, and routes
// guild-scoped dispatch events to per-guild mailboxes.
type Demux struct {
	logger   *slog.Logger
	requests chan<- gateway.Command

	registry map[snowflake.ID]*entry

	// OnSeed is invoked the first time a guild is seen, handing the
	// application the initial snapshot and a Receiver to read that
	// guild's raw event stream from.
	OnSeed func(guildID snowflake.ID, initial types.Guild, recv Receiver)
}

// NewDemux constructs a Demux. requests is the outbound gateway command
// channel; the Demux stores it but sends nothing on it (projections send
// RequestGuildMembers on their own channel). It may be nil in tests.
func NewDemux(requests chan<- gateway.Command, logger *slog.Logger) *Demux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Demux{
		logger:   logger,
		requests: requests,
		registry: make(map[snowflake.ID]*entry),
	}
}

// HandleLifecycle processes one Supervisor notification. Only EventReceived
// carries a gateway.Event to route; the others reset or pass through the
// registry.
func (d *Demux) HandleLifecycle(ctx context.Context, lc gateway.Lifecycle) {
	switch lc.Kind {
	case gateway.EventReceived:
		d.handleEvent(lc.Event)
	case gateway.SessionInvalidated:
		d.reset()
	default:
		// Online/Offline/ShutdownComplete are session-level signals with
		// no guild-scoped routing to perform here.
	}
}

func (d *Demux) reset() {
	for id, e := range d.registry {
		if e.mailbox != nil {
			e.mailbox.clear()
		}
		delete(d.registry, id)
	}
}

func (d *Demux) handleEvent(ev gateway.Event) {
	disp, ok := ev.(gateway.DispatchEvent)
	if !ok {
		return // Hello/HeartbeatAck/Unknown: ignored at this layer.
	}

	switch disp.Name {
	case gateway.DispatchReady:
		var ready gateway.Ready
		if err := decodeDispatch(disp, &ready); err != nil {
			d.logger.Warn("guild: decode ready failed", "error", err)
			return
		}
		for _, g := range ready.Guilds {
			d.registry[g.ID] = &entry{available: false}
		}
	case gateway.DispatchResumed:
		for _, e := range d.registry {
			if e.available && e.mailbox != nil {
				e.mailbox.send(availabilityEvent{online: true})
			}
		}
	case gateway.DispatchGuildCreate:
		var g types.Guild
		if err := decodeDispatch(disp, &g); err != nil {
			d.logger.Warn("guild: decode guild_create failed", "error", err)
			return
		}
		d.handleGuildCreate(g)
	default:
		d.routeGuildScoped(disp)
	}
}

func (d *Demux) handleGuildCreate(g types.Guild) {
	e, exists := d.registry[g.ID]
	wasAvailable := exists && e.available
	nowAvailable := !g.Unavailable

	if !exists || e.mailbox == nil {
		mb := newMailbox()
		e = &entry{mailbox: mb}
		d.registry[g.ID] = e
		if d.OnSeed != nil {
			d.OnSeed(g.ID, g, Receiver(mb.ch))
		}
	}
	e.available = nowAvailable

	if wasAvailable != nowAvailable {
		e.mailbox.send(availabilityEvent{online: nowAvailable})
	}
	e.mailbox.send(guildSnapshotEvent{guild: g})
}

func (d *Demux) routeGuildScoped(disp gateway.DispatchEvent) {
	id, ok := guildIDOf(disp)
	if !ok {
		return
	}
	e, exists := d.registry[id]
	if !exists || e.mailbox == nil {
		d.logger.Warn("guild: dropping event, mailbox absent", "guild_id", id.String(), "dispatch", disp.Name)
		return
	}
	if !e.mailbox.send(disp) {
		d.logger.Warn("guild: dropping event, mailbox full", "guild_id", id.String(), "dispatch", disp.Name)
	}
}

// guildIDOf extracts a dispatch payload's guild_id field without knowing
// its full shape, for routing purposes only; the Projection later decodes
// the full typed payload.
func guildIDOf(disp gateway.DispatchEvent) (snowflake.ID, bool) {
	var probe struct {
		GuildID snowflake.ID `json:"guild_id"`
	}
	if err := json.Unmarshal(disp.Data, &probe); err != nil || probe.GuildID.IsZero() {
		return 0, false
	}
	return probe.GuildID, true
}
