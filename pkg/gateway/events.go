package gateway

import (
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
)

// Recognized dispatch names. Any name outside this set is still delivered
// as a DispatchEvent; callers that switch on Name fall through to their
// default case for it.
const (
	DispatchReady                      = "READY"
	DispatchResumed                    = "RESUMED"
	DispatchGuildCreate                = "GUILD_CREATE"
	DispatchGuildUpdate                = "GUILD_UPDATE"
	DispatchGuildDelete                = "GUILD_DELETE"
	DispatchChannelCreate              = "CHANNEL_CREATE"
	DispatchChannelUpdate              = "CHANNEL_UPDATE"
	DispatchChannelDelete              = "CHANNEL_DELETE"
	DispatchGuildRoleCreate            = "GUILD_ROLE_CREATE"
	DispatchGuildRoleUpdate            = "GUILD_ROLE_UPDATE"
	DispatchGuildRoleDelete            = "GUILD_ROLE_DELETE"
	DispatchGuildMemberAdd             = "GUILD_MEMBER_ADD"
	DispatchGuildMemberUpdate          = "GUILD_MEMBER_UPDATE"
	DispatchGuildMemberRemove          = "GUILD_MEMBER_REMOVE"
	DispatchGuildMembersChunk          = "GUILD_MEMBERS_CHUNK"
	DispatchMessageCreate              = "MESSAGE_CREATE"
	DispatchMessageUpdate              = "MESSAGE_UPDATE"
	DispatchMessageReactionAdd         = "MESSAGE_REACTION_ADD"
	DispatchMessageReactionRemove      = "MESSAGE_REACTION_REMOVE"
	DispatchMessageReactionRemoveAll   = "MESSAGE_REACTION_REMOVE_ALL"
	DispatchMessageReactionRemoveEmoji = "MESSAGE_REACTION_REMOVE_EMOJI"
	DispatchVoiceStateUpdate           = "VOICE_STATE_UPDATE"
	DispatchVoiceServerUpdate          = "VOICE_SERVER_UPDATE"
	DispatchApplicationCommandCreate   = "APPLICATION_COMMAND_CREATE"
	DispatchApplicationCommandUpdate   = "APPLICATION_COMMAND_UPDATE"
	DispatchApplicationCommandDelete   = "APPLICATION_COMMAND_DELETE"
)

// Ready is the payload of the READY dispatch: identity plus the initial
// (all-unavailable) guild placeholder list.
type Ready struct {
	SessionID   string                   `json:"session_id"`
	User        types.User               `json:"user"`
	Application types.Application        `json:"application"`
	Guilds      []types.UnavailableGuild `json:"guilds"`
}

// GuildDelete is GUILD_DELETE's payload: either the guild went unavailable
// (still a member) or the bot left/was removed (Unavailable false).
type GuildDelete struct {
	ID          snowflake.ID `json:"id"`
	Unavailable bool         `json:"unavailable"`
}

// GuildRoleCreate/Update share this shape: a single role nested under the
// owning guild id.
type GuildRoleCreate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    types.Role   `json:"role"`
}

type GuildRoleUpdate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    types.Role   `json:"role"`
}

// GuildRoleDelete carries just the id: the role body is gone by the time
// this dispatch arrives.
type GuildRoleDelete struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id"`
}

// GuildMemberAdd/Update embed the member plus its owning guild id; the
// member's own payload does not carry one.
type GuildMemberAdd struct {
	GuildID snowflake.ID `json:"guild_id"`
	types.Member
}

type GuildMemberUpdate struct {
	GuildID snowflake.ID `json:"guild_id"`
	types.Member
}

// GuildMemberRemove carries only the user id: the member record is gone.
type GuildMemberRemove struct {
	GuildID snowflake.ID `json:"guild_id"`
	User    types.User   `json:"user"`
}

// GuildMembersChunk is the bulk reply to RequestGuildMembers.
type GuildMembersChunk struct {
	GuildID snowflake.ID   `json:"guild_id"`
	Members []types.Member `json:"members"`
	ChunkIndex int         `json:"chunk_index"`
	ChunkCount int         `json:"chunk_count"`
	Nonce      string      `json:"nonce,omitempty"`
}

// MessageReaction is the shared shape of the four reaction dispatch types.
type MessageReaction struct {
	UserID    snowflake.ID `json:"user_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id"`
	Emoji     types.Emoji  `json:"emoji"`
}

// MessageReactionRemoveAll carries no emoji: every reaction on the message
// was cleared.
type MessageReactionRemoveAll struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id"`
}

// MessageReactionRemoveEmoji clears every reaction for one emoji, across
// all users.
type MessageReactionRemoveEmoji struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id"`
	Emoji     types.Emoji  `json:"emoji"`
}

// VoiceServerUpdate hands the voice control plane the token and endpoint
// half of the voice credential triple. Endpoint is nil when the platform is
// moving the session: the voice plane must tear down.
type VoiceServerUpdate struct {
	Token    string       `json:"token"`
	GuildID  snowflake.ID `json:"guild_id"`
	Endpoint *string      `json:"endpoint"`
}

// ApplicationCommandCreate/Update/Delete carry the full command record;
// guild projection keys its command map by Name.
type ApplicationCommandCreate struct {
	types.ApplicationCommand
}

type ApplicationCommandUpdate struct {
	types.ApplicationCommand
}

type ApplicationCommandDelete struct {
	types.ApplicationCommand
}
