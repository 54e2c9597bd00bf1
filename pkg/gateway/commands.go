package gateway

import "github.com/arcweave/gatewire/pkg/snowflake"

// Command is any outbound gateway frame. opcode is unexported: only this
// package's command set may serialize onto the wire envelope, keeping
// Encode exhaustive.
type Command interface {
	opcode() int
}

// Heartbeat carries the last sequence seen, or 0 before any dispatch has
// arrived. It serializes as {"op":1,"d":<seq>}.
type Heartbeat int64

func (Heartbeat) opcode() int { return int(OpHeartbeat) }

// IdentifyProperties is the client-identification block Identify carries.
type IdentifyProperties struct {
	OS      string `json:"$os"`
	Browser string `json:"$browser"`
	Device  string `json:"$device"`
}

// Identify opens a brand-new session.
type Identify struct {
	Token          string             `json:"token"`
	Properties     IdentifyProperties `json:"properties"`
	Intents        Intents            `json:"intents"`
	Compress       bool               `json:"compress,omitempty"`
	LargeThreshold int                `json:"large_threshold,omitempty"`
	Shard          *[2]int            `json:"shard,omitempty"`
}

func (Identify) opcode() int { return int(OpIdentify) }

// Resume re-attaches to a previously established session.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

func (Resume) opcode() int { return int(OpResume) }

// UpdateVoiceState requests joining, moving, or leaving a voice channel.
// A nil ChannelID means "leave the current voice channel".
type UpdateVoiceState struct {
	GuildID   snowflake.ID  `json:"guild_id"`
	ChannelID *snowflake.ID `json:"channel_id"`
	SelfMute  bool          `json:"self_mute"`
	SelfDeaf  bool          `json:"self_deaf"`
}

func (UpdateVoiceState) opcode() int { return int(OpVoiceStateUpdate) }

// RequestGuildMembers asks the server to stream GuildMembersChunk dispatch
// events for the given guild.
type RequestGuildMembers struct {
	GuildID   snowflake.ID   `json:"guild_id"`
	Query     string         `json:"query"`
	Limit     int            `json:"limit"`
	Presences bool           `json:"presences,omitempty"`
	UserIDs   []snowflake.ID `json:"user_ids,omitempty"`
	Nonce     string         `json:"nonce,omitempty"`
}

func (RequestGuildMembers) opcode() int { return int(OpRequestGuildMembers) }

// UpdateStatus sets the bot's own presence.
type UpdateStatus struct {
	Since  *int64 `json:"since"`
	Status string `json:"status"`
	AFK    bool   `json:"afk"`
}

func (UpdateStatus) opcode() int { return int(OpPresenceUpdate) }
