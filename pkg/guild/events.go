package guild

import (
	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
)

// Event is a higher-level, guild-scoped notification a Projection emits to
// the application after interpreting a raw dispatch event. Concrete types
// switch the same way gateway.Event does; Passthrough is the distinguished
// "unknown, forward unchanged" tail for dispatch names this layer does not
// specifically interpret.
type Event interface{ isGuildEvent() }

// Online/Offline mirror the guild's unavailable-flag transitions.
type Online struct{}
type Offline struct{}

func (Online) isGuildEvent()  {}
func (Offline) isGuildEvent() {}

// Seed carries a first-seen guild's id and the receiver handle the
// application reads its guild-scoped stream from. The Demux does not emit
// it; it hands the same pair to its OnSeed callback instead.
type Seed struct {
	GuildID  snowflake.ID
	Receiver Receiver
}

func (Seed) isGuildEvent() {}

// MemberAdded is a new member joining, or one filled in by a members chunk.
type MemberAdded struct{ Member types.Member }

func (MemberAdded) isGuildEvent() {}

// MemberChange enumerates which field a MemberUpdated event found changed.
type MemberChange int

const (
	ChangeNone MemberChange = iota
	ChangeNickname
	ChangeUsername
	ChangeDiscriminator
	ChangeAvatar
	ChangePremiumSince
	ChangeRoles
)

// MemberUpdated carries the new member record, which field changed, and
// (only for ChangeRoles) the first differing role id.
type MemberUpdated struct {
	Member    types.Member
	Change    MemberChange
	RoleDelta snowflake.ID
}

func (MemberUpdated) isGuildEvent() {}

// MemberRemoved is a member leaving or being removed.
type MemberRemoved struct{ UserID snowflake.ID }

func (MemberRemoved) isGuildEvent() {}

type RoleCreated struct{ Role types.Role }
type RoleUpdated struct{ Role types.Role }
type RoleDeleted struct{ RoleID snowflake.ID }

func (RoleCreated) isGuildEvent() {}
func (RoleUpdated) isGuildEvent() {}
func (RoleDeleted) isGuildEvent() {}

type ChannelCreated struct{ Channel types.Channel }
type ChannelUpdated struct{ Channel types.Channel }
type ChannelDeleted struct{ ChannelID snowflake.ID }

func (ChannelCreated) isGuildEvent() {}
func (ChannelUpdated) isGuildEvent() {}
func (ChannelDeleted) isGuildEvent() {}

type MessageCreated struct{ Message types.Message }
type MessageUpdated struct{ Message types.Message }

func (MessageCreated) isGuildEvent() {}
func (MessageUpdated) isGuildEvent() {}

type ReactionAdded struct{ Reaction gateway.MessageReaction }
type ReactionRemoved struct{ Reaction gateway.MessageReaction }
type ReactionRemovedAll struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}
type ReactionRemovedEmoji struct{ Reaction gateway.MessageReaction }

func (ReactionAdded) isGuildEvent()        {}
func (ReactionRemoved) isGuildEvent()      {}
func (ReactionRemovedAll) isGuildEvent()   {}
func (ReactionRemovedEmoji) isGuildEvent() {}

type CommandCreated struct{ Command types.ApplicationCommand }
type CommandUpdated struct{ Command types.ApplicationCommand }
type CommandDeleted struct{ Name string }

func (CommandCreated) isGuildEvent() {}
func (CommandUpdated) isGuildEvent() {}
func (CommandDeleted) isGuildEvent() {}

// VoiceStateChanged and VoiceServerChanged pass the raw dispatch through:
// the Voice Control Plane, not guild projection, interprets them.
type VoiceStateChanged struct{ State types.VoiceState }
type VoiceServerChanged struct{ Update gateway.VoiceServerUpdate }

func (VoiceStateChanged) isGuildEvent()  {}
func (VoiceServerChanged) isGuildEvent() {}

// Passthrough wraps any gateway event this layer does not specifically
// interpret (Hello/Resumed/InvalidSession/HeartbeatAck/Unknown at guild
// scope, or an unrecognized dispatch name), forwarded unchanged.
type Passthrough struct{ Event gateway.Event }

func (Passthrough) isGuildEvent() {}
