package guild

import (
	"context"
	"log/slog"

	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
)

// CommandLister is the narrow REST surface a Projection needs at
// construction time: the guild's registered slash-command list. Accepting
// this instead of a concrete REST client keeps this package free of a
// dependency on pkg/rest.
type CommandLister interface {
	ListApplicationCommands(ctx context.Context, guildID snowflake.ID) ([]types.ApplicationCommand, error)
}

// Projection is the per-guild coroutine: it consumes its mailbox,
// maintains channel/role/member/command maps, and emits a higher-level
// Event stream. It is not safe for concurrent use — Run is meant to be the
// sole goroutine touching it.
type Projection struct {
	guildID snowflake.ID
	logger  *slog.Logger

	channels map[snowflake.ID]types.Channel
	roles    map[snowflake.ID]types.Role
	members  map[snowflake.ID]types.Member
	commands map[string]types.ApplicationCommand

	memberCountHint int

	mailbox  Receiver
	requests chan<- gateway.Command // outbound gateway command channel
	emit     func(Event)
}

// NewProjection constructs a Projection seeded from the initial GuildCreate
// payload. It fetches the guild's slash-command list from REST
// synchronously, before Run is ever called.
func NewProjection(
	ctx context.Context,
	seed types.Guild,
	mailbox Receiver,
	requests chan<- gateway.Command,
	rest CommandLister,
	emit func(Event),
	logger *slog.Logger,
) *Projection {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Projection{
		guildID:  seed.ID,
		logger:   logger.With("guild_id", seed.ID.String()),
		channels: make(map[snowflake.ID]types.Channel, len(seed.Channels)),
		roles:    make(map[snowflake.ID]types.Role, len(seed.Roles)),
		members:  make(map[snowflake.ID]types.Member, len(seed.Members)),
		commands: make(map[string]types.ApplicationCommand),
		mailbox:  mailbox,
		requests: requests,
		emit:     emit,
	}
	p.applyGuildSnapshot(seed)

	if rest != nil {
		cmds, err := rest.ListApplicationCommands(ctx, seed.ID)
		if err != nil {
			p.logger.Warn("guild: list application commands failed", "error", err)
		} else {
			for _, c := range cmds {
				p.commands[c.Name] = c
			}
		}
	}
	return p
}

// Channels returns a snapshot of the guild's known channels.
func (p *Projection) Channels() []types.Channel {
	out := make([]types.Channel, 0, len(p.channels))
	for _, c := range p.channels {
		out = append(out, c)
	}
	return out
}

// Channel looks up a single channel by id.
func (p *Projection) Channel(id snowflake.ID) (types.Channel, bool) {
	c, ok := p.channels[id]
	return c, ok
}

// Roles returns a snapshot of the guild's known roles.
func (p *Projection) Roles() []types.Role {
	out := make([]types.Role, 0, len(p.roles))
	for _, r := range p.roles {
		out = append(out, r)
	}
	return out
}

// Member looks up a single member by user id.
func (p *Projection) Member(userID snowflake.ID) (types.Member, bool) {
	m, ok := p.members[userID]
	return m, ok
}

// Commands returns a snapshot of the guild's registered slash commands.
func (p *Projection) Commands() []types.ApplicationCommand {
	out := make([]types.ApplicationCommand, 0, len(p.commands))
	for _, c := range p.commands {
		out = append(out, c)
	}
	return out
}

// Run drains the mailbox until it is closed (the projection disconnected)
// or ctx is cancelled.
func (p *Projection) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.mailbox:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

// applyGuildSnapshot replaces channels/roles wholesale and inserts members
// (never overwriting ones already known): the GuildCreate/GuildUpdate
// update semantics.
func (p *Projection) applyGuildSnapshot(g types.Guild) {
	p.channels = make(map[snowflake.ID]types.Channel, len(g.Channels))
	for _, c := range g.Channels {
		p.channels[c.ID] = c
	}
	p.roles = make(map[snowflake.ID]types.Role, len(g.Roles))
	for _, r := range g.Roles {
		p.roles[r.ID] = r
	}
	for _, m := range g.Members {
		uid := m.UserID()
		if uid.IsZero() {
			continue
		}
		if _, exists := p.members[uid]; !exists {
			p.members[uid] = m
		}
	}
	p.memberCountHint = g.MemberCount
	p.requestMissingMembersIfNeeded()
}

// requestMissingMembersIfNeeded issues RequestGuildMembers when the
// server's member_count hint exceeds what this projection has observed.
func (p *Projection) requestMissingMembersIfNeeded() {
	if p.memberCountHint <= len(p.members) || p.requests == nil {
		return
	}
	cmd := gateway.RequestGuildMembers{GuildID: p.guildID, Query: "", Limit: 0}
	select {
	case p.requests <- cmd:
	default:
		p.logger.Warn("guild: request_guild_members dropped, outbound channel full")
	}
}

// Apply interprets one dispatch event against the local channel/role/
// member/command maps and emits zero or more higher-level events.
func (p *Projection) Apply(ev gateway.Event) {
	switch e := ev.(type) {
	case availabilityEvent:
		if e.online {
			p.emit(Online{})
		} else {
			p.emit(Offline{})
		}
		return
	case guildSnapshotEvent:
		p.applyGuildSnapshot(e.guild)
		return
	}

	disp, ok := ev.(gateway.DispatchEvent)
	if !ok {
		p.emit(Passthrough{Event: ev})
		return
	}

	switch disp.Name {
	case gateway.DispatchGuildUpdate:
		var g types.Guild
		if p.decode(disp, &g) {
			p.applyGuildSnapshot(g)
		}
	case gateway.DispatchGuildMemberAdd:
		var m gateway.GuildMemberAdd
		if p.decode(disp, &m) {
			p.members[m.UserID()] = m.Member
			p.emit(MemberAdded{Member: m.Member})
		}
	case gateway.DispatchGuildMembersChunk:
		var chunk gateway.GuildMembersChunk
		if p.decode(disp, &chunk) {
			for _, m := range chunk.Members {
				uid := m.UserID()
				if uid.IsZero() {
					continue
				}
				p.members[uid] = m
				p.emit(MemberAdded{Member: m})
			}
		}
	case gateway.DispatchGuildMemberUpdate:
		var m gateway.GuildMemberUpdate
		if p.decode(disp, &m) {
			p.applyMemberUpdate(m.Member)
		}
	case gateway.DispatchGuildMemberRemove:
		var r gateway.GuildMemberRemove
		if p.decode(disp, &r) {
			delete(p.members, r.User.ID)
			p.emit(MemberRemoved{UserID: r.User.ID})
		}
	case gateway.DispatchGuildRoleCreate:
		var r gateway.GuildRoleCreate
		if p.decode(disp, &r) {
			p.roles[r.Role.ID] = r.Role
			p.emit(RoleCreated{Role: r.Role})
		}
	case gateway.DispatchGuildRoleUpdate:
		var r gateway.GuildRoleUpdate
		if p.decode(disp, &r) {
			p.roles[r.Role.ID] = r.Role
			p.emit(RoleUpdated{Role: r.Role})
		}
	case gateway.DispatchGuildRoleDelete:
		var r gateway.GuildRoleDelete
		if p.decode(disp, &r) {
			delete(p.roles, r.RoleID)
			for uid, m := range p.members {
				if _, has := m.RoleSet()[r.RoleID]; has {
					m.Roles = removeID(m.Roles, r.RoleID)
					p.members[uid] = m
				}
			}
			p.emit(RoleDeleted{RoleID: r.RoleID})
		}
	case gateway.DispatchChannelCreate:
		var c types.Channel
		if p.decode(disp, &c) {
			p.channels[c.ID] = c
			p.emit(ChannelCreated{Channel: c})
		}
	case gateway.DispatchChannelUpdate:
		var c types.Channel
		if p.decode(disp, &c) {
			p.channels[c.ID] = c
			p.emit(ChannelUpdated{Channel: c})
		}
	case gateway.DispatchChannelDelete:
		var c types.Channel
		if p.decode(disp, &c) {
			delete(p.channels, c.ID)
			p.emit(ChannelDeleted{ChannelID: c.ID})
		}
	case gateway.DispatchMessageCreate:
		var m types.Message
		if p.decode(disp, &m) && p.acceptMessage(m) {
			p.emit(MessageCreated{Message: m})
		}
	case gateway.DispatchMessageUpdate:
		var m types.Message
		if p.decode(disp, &m) && p.acceptMessage(m) {
			p.emit(MessageUpdated{Message: m})
		}
	case gateway.DispatchMessageReactionAdd:
		var r gateway.MessageReaction
		if p.decode(disp, &r) {
			p.emit(ReactionAdded{Reaction: r})
		}
	case gateway.DispatchMessageReactionRemove:
		var r gateway.MessageReaction
		if p.decode(disp, &r) {
			p.emit(ReactionRemoved{Reaction: r})
		}
	case gateway.DispatchMessageReactionRemoveAll:
		var r gateway.MessageReactionRemoveAll
		if p.decode(disp, &r) {
			p.emit(ReactionRemovedAll{ChannelID: r.ChannelID, MessageID: r.MessageID})
		}
	case gateway.DispatchMessageReactionRemoveEmoji:
		var r gateway.MessageReactionRemoveEmoji
		if p.decode(disp, &r) {
			p.emit(ReactionRemovedEmoji{Reaction: gateway.MessageReaction{
				ChannelID: r.ChannelID, MessageID: r.MessageID, GuildID: r.GuildID, Emoji: r.Emoji,
			}})
		}
	case gateway.DispatchApplicationCommandCreate:
		var c gateway.ApplicationCommandCreate
		if p.decode(disp, &c) {
			p.commands[c.Name] = c.ApplicationCommand
			p.emit(CommandCreated{Command: c.ApplicationCommand})
		}
	case gateway.DispatchApplicationCommandUpdate:
		var c gateway.ApplicationCommandUpdate
		if p.decode(disp, &c) {
			p.commands[c.Name] = c.ApplicationCommand
			p.emit(CommandUpdated{Command: c.ApplicationCommand})
		}
	case gateway.DispatchApplicationCommandDelete:
		var c gateway.ApplicationCommandDelete
		if p.decode(disp, &c) {
			delete(p.commands, c.Name)
			p.emit(CommandDeleted{Name: c.Name})
		}
	case gateway.DispatchVoiceStateUpdate:
		var v types.VoiceState
		if p.decode(disp, &v) {
			p.emit(VoiceStateChanged{State: v})
		}
	case gateway.DispatchVoiceServerUpdate:
		var v gateway.VoiceServerUpdate
		if p.decode(disp, &v) {
			p.emit(VoiceServerChanged{Update: v})
		}
	default:
		// Hello/Ready/Resumed/InvalidSession/HeartbeatAck/Unknown, or any
		// dispatch name this projection does not specifically interpret:
		// pass through unchanged.
		p.emit(Passthrough{Event: ev})
	}
}

// acceptMessage filters out webhook messages and non-default message
// types.
func (p *Projection) acceptMessage(m types.Message) bool {
	return !m.IsWebhook() && m.Type == types.DefaultMessageType
}

// applyMemberUpdate mutates the member map and infers which field changed,
// reporting the first differing role id on a role-set change (symmetric
// difference of the old and new role sets).
func (p *Projection) applyMemberUpdate(m types.Member) {
	uid := m.UserID()
	prev, existed := p.members[uid]
	p.members[uid] = m
	if !existed {
		p.emit(MemberAdded{Member: m})
		return
	}

	change, delta := diffMember(prev, m)
	p.emit(MemberUpdated{Member: m, Change: change, RoleDelta: delta})
}

func diffMember(prev, next types.Member) (MemberChange, snowflake.ID) {
	if prev.Nick != next.Nick {
		return ChangeNickname, 0
	}
	if prevUser, nextUser := prev.User, next.User; prevUser != nil && nextUser != nil {
		if prevUser.Username != nextUser.Username {
			return ChangeUsername, 0
		}
		if prevUser.Discriminator != nextUser.Discriminator {
			return ChangeDiscriminator, 0
		}
	}
	if prev.Avatar != next.Avatar {
		return ChangeAvatar, 0
	}
	if !equalPremiumSince(prev.PremiumSince, next.PremiumSince) {
		return ChangePremiumSince, 0
	}
	if id, changed := symmetricDiffFirst(prev.RoleSet(), next.RoleSet()); changed {
		return ChangeRoles, id
	}
	return ChangeNone, 0
}

func equalPremiumSince(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// symmetricDiffFirst returns the first role id present in exactly one of
// the two sets, and whether any such id exists. Map iteration order is
// unspecified, so "first" means an arbitrary but deterministic-per-call
// choice; callers only need "a differing id", not a specific one.
func symmetricDiffFirst(a, b map[snowflake.ID]struct{}) (snowflake.ID, bool) {
	for id := range a {
		if _, ok := b[id]; !ok {
			return id, true
		}
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

func removeID(ids []snowflake.ID, target snowflake.ID) []snowflake.ID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (p *Projection) decode(disp gateway.DispatchEvent, v any) bool {
	if err := decodeDispatch(disp, v); err != nil {
		p.logger.Warn("guild: decode dispatch failed", "dispatch", disp.Name, "error", err)
		return false
	}
	return true
}
