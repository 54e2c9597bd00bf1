package client

import (
	"context"
	"fmt"

	"github.com/arcweave/gatewire/pkg/guild"
	"github.com/arcweave/gatewire/pkg/rest"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
	"github.com/arcweave/gatewire/pkg/voice"
)

// restCommandLister adapts a rest.Client to guild.CommandLister so the guild
// package never needs to import pkg/rest.
type restCommandLister struct {
	rest          rest.Client
	applicationID snowflake.ID
}

func (l *restCommandLister) ListApplicationCommands(ctx context.Context, guildID snowflake.ID) ([]types.ApplicationCommand, error) {
	var cmds []types.ApplicationCommand
	path := fmt.Sprintf("/applications/%s/guilds/%s/commands", l.applicationID, guildID)
	if err := l.rest.Get(ctx, "GET /applications/:id/guilds/:id/commands", path, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// createMessagePayload is the minimal JSON body for posting a channel message.
type createMessagePayload struct {
	Content string `json:"content,omitempty"`
}

// GuildHandle is the application's long-lived handle to one guild: cached
// channel/role/member/command state plus convenience REST calls and voice
// control, so callers rarely need to reach for the bare rest.Client
// themselves.
type GuildHandle struct {
	id         snowflake.ID
	name       string
	selfUserID snowflake.ID
	projection *guild.Projection
	rest       rest.Client
	voice      *voice.Player
}

// ID returns the guild's snowflake id.
func (g *GuildHandle) ID() snowflake.ID { return g.id }

// Name returns the guild's name as of the most recent seed or snapshot the
// application observed (guild-name edits surfaced by GUILD_UPDATE are merged
// into channel/role/member state but are not separately re-read here).
func (g *GuildHandle) Name() string { return g.name }

// Channels returns a snapshot of the guild's known channels.
func (g *GuildHandle) Channels() []types.Channel { return g.projection.Channels() }

// Channel looks up a single channel by id.
func (g *GuildHandle) Channel(id snowflake.ID) (types.Channel, bool) { return g.projection.Channel(id) }

// Roles returns a snapshot of the guild's known roles.
func (g *GuildHandle) Roles() []types.Role { return g.projection.Roles() }

// Member looks up a single member by user id.
func (g *GuildHandle) Member(userID snowflake.ID) (types.Member, bool) {
	return g.projection.Member(userID)
}

// Commands returns the guild's registered slash commands.
func (g *GuildHandle) Commands() []types.ApplicationCommand { return g.projection.Commands() }

// SendMessage posts content to channelID in this guild.
func (g *GuildHandle) SendMessage(ctx context.Context, channelID snowflake.ID, content string) (types.Message, error) {
	var out types.Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	err := g.rest.Post(ctx, "POST /channels/:id/messages", path, createMessagePayload{Content: content}, &out)
	return out, err
}

// FetchMember fetches a guild member by user id directly from REST,
// returning rest.None when the platform reports the member unknown.
func (g *GuildHandle) FetchMember(ctx context.Context, userID snowflake.ID) (rest.Optional[types.Member], error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", g.id, userID)
	return rest.GetOptional(func(out *types.Member) error {
		return g.rest.Get(ctx, "GET /guilds/:id/members/:uid", path, out)
	})
}

// JoinVoice requests the voice player connect to channelID. The actual
// handshake runs asynchronously; subscribe via Client.OnVoiceEvent for the
// outcome.
func (g *GuildHandle) JoinVoice(ctx context.Context, channelID snowflake.ID) error {
	if g.voice == nil {
		return fmt.Errorf("client: guild %s has no voice player attached", g.id)
	}
	select {
	case g.voice.Controls() <- voice.ControlCommand{Kind: voice.ControlConnect, ChannelID: channelID.String()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LeaveVoice disconnects the voice player from its current channel, if any.
func (g *GuildHandle) LeaveVoice(ctx context.Context) error {
	if g.voice == nil {
		return nil
	}
	select {
	case g.voice.Controls() <- voice.ControlCommand{Kind: voice.ControlDisconnect}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play submits src to the voice player for playback. The guild must already
// be connected to a voice channel.
func (g *GuildHandle) Play(ctx context.Context, src voice.PCMSource) error {
	if g.voice == nil {
		return fmt.Errorf("client: guild %s has no voice player attached", g.id)
	}
	select {
	case g.voice.Controls() <- voice.ControlCommand{Kind: voice.ControlPlay, Source: src}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
