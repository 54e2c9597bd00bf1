package client

import (
	"github.com/arcweave/gatewire/pkg/guild"
	"github.com/arcweave/gatewire/pkg/voice"
)

// routeVoice feeds the voice-relevant facts a guild.Event carries into the
// guild's voice.Player, if one is attached. Everything else a Projection
// emits is guild-state bookkeeping the player has no use for.
func (c *Client) routeVoice(gh *GuildHandle, ev guild.Event) {
	if gh.voice == nil {
		return
	}

	var u voice.Update
	switch e := ev.(type) {
	case guild.VoiceStateChanged:
		if e.State.UserID != gh.selfUserID {
			return
		}
		u = voice.Update{Kind: voice.UpdateVoiceState, SelfSessionID: e.State.SessionID}
		if !e.State.ChannelID.IsZero() {
			cid := e.State.ChannelID.String()
			u.SelfChannelID = &cid
		}
	case guild.VoiceServerChanged:
		u = voice.Update{Kind: voice.UpdateVoiceServer, VoiceToken: e.Update.Token, VoiceEndpoint: e.Update.Endpoint}
	case guild.Online:
		u = voice.Update{Kind: voice.UpdateGuildOnline}
	case guild.Offline:
		u = voice.Update{Kind: voice.UpdateGuildOffline}
	default:
		return
	}

	select {
	case gh.voice.Updates() <- u:
	default:
		c.logger.Warn("client: voice update dropped, player mailbox full", "guild_id", gh.id.String())
	}
}
