// Package types defines the protocol-data model shared by gatewire's
// gateway, guild, voice, and rest packages.
//
// This is deliberately not an exhaustive mirror of the platform's full REST
// schema — the precise field set for any given entity is prescribed by the
// external platform, not re-derived here. It carries only the fields the
// rest of this module actually reads: enough to drive guild-state
// projection, voice credential assembly, and REST request/response bodies.
package types

import "github.com/arcweave/gatewire/pkg/snowflake"

// User identifies an account on the platform.
type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	Avatar        string       `json:"avatar"`
	Bot           bool         `json:"bot"`
}

// Application identifies the bot's own application registration, returned
// on the gateway Ready event.
type Application struct {
	ID    snowflake.ID `json:"id"`
	Flags int          `json:"flags"`
}

// Member is a user's guild-scoped profile: nickname, roles, join metadata.
type Member struct {
	User         *User          `json:"user"`
	Nick         string         `json:"nick"`
	Avatar       string         `json:"avatar"`
	Roles        []snowflake.ID `json:"roles"`
	JoinedAt     string         `json:"joined_at"`
	PremiumSince *string        `json:"premium_since"`
	Deaf         bool           `json:"deaf"`
	Mute         bool           `json:"mute"`
}

// UserID returns the member's user ID, or zero if the embedded user is nil.
func (m Member) UserID() snowflake.ID {
	if m.User == nil {
		return 0
	}
	return m.User.ID
}

// RoleSet returns m.Roles as a set for symmetric-difference comparisons.
func (m Member) RoleSet() map[snowflake.ID]struct{} {
	set := make(map[snowflake.ID]struct{}, len(m.Roles))
	for _, r := range m.Roles {
		set[r] = struct{}{}
	}
	return set
}

// Role is a guild permission/grouping role.
type Role struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Color       int          `json:"color"`
	Hoist       bool         `json:"hoist"`
	Position    int          `json:"position"`
	Permissions string       `json:"permissions"`
	Managed     bool         `json:"managed"`
	Mentionable bool         `json:"mentionable"`
}

// ChannelType enumerates the channel kinds relevant to guild projection.
type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelDM
	ChannelVoice
	ChannelGroupDM
	ChannelCategory
	ChannelAnnouncement
	ChannelStage
)

// Channel is a guild channel record.
type Channel struct {
	ID       snowflake.ID `json:"id"`
	GuildID  snowflake.ID `json:"guild_id"`
	Name     string       `json:"name"`
	Type     ChannelType  `json:"type"`
	Position int          `json:"position"`
	ParentID snowflake.ID `json:"parent_id"`
	Topic    string       `json:"topic"`
}

// MessageType distinguishes ordinary messages from system messages.
type MessageType int

// DefaultMessageType is the ordinary user-authored message type. Guild
// projection skips any message whose type is not this one.
const DefaultMessageType MessageType = 0

// Message is a channel message.
type Message struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id"`
	GuildID   snowflake.ID `json:"guild_id"`
	Author    User         `json:"author"`
	Content   string       `json:"content"`
	Type      MessageType  `json:"type"`
	WebhookID snowflake.ID `json:"webhook_id"`
}

// IsWebhook reports whether the message was authored by a webhook rather
// than a real user.
func (m Message) IsWebhook() bool {
	return !m.WebhookID.IsZero()
}

// ApplicationCommand is a registered slash-command definition.
type ApplicationCommand struct {
	ID            snowflake.ID `json:"id"`
	ApplicationID snowflake.ID `json:"application_id"`
	GuildID       snowflake.ID `json:"guild_id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
}

// Emoji identifies a reaction emoji, which may be a custom guild emoji
// (NonZero ID) or a built-in unicode emoji (empty ID, Name holds the glyph).
type Emoji struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

// UnavailableGuild is the placeholder guild entry carried on Ready, before
// the corresponding GuildCreate events arrive.
type UnavailableGuild struct {
	ID          snowflake.ID `json:"id"`
	Unavailable bool         `json:"unavailable"`
}

// Guild is the full guild payload delivered on GuildCreate/GuildUpdate.
type Guild struct {
	ID                     snowflake.ID `json:"id"`
	Name                   string       `json:"name"`
	Unavailable            bool         `json:"unavailable"`
	MemberCount            int          `json:"member_count"`
	Channels               []Channel    `json:"channels"`
	Roles                  []Role       `json:"roles"`
	Members                []Member     `json:"members"`
	ApproximateMemberCount int          `json:"approximate_member_count"`
	VoiceStates            []VoiceState `json:"voice_states"`
}

// VoiceState describes one user's voice-channel presence within a guild.
type VoiceState struct {
	GuildID   snowflake.ID `json:"guild_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	UserID    snowflake.ID `json:"user_id"`
	SessionID string       `json:"session_id"`
	Member    *Member      `json:"member"`
	SelfMute  bool         `json:"self_mute"`
	SelfDeaf  bool         `json:"self_deaf"`
}
