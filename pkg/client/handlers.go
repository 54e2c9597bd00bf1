package client

import (
	"github.com/arcweave/gatewire/pkg/guild"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/voice"
)

// handlers holds every callback an application can register on a Builder or
// Client. A typed registration (OnMessageCreate, OnGuildOnline, ...) fires
// alongside the catch-all OnEvent, giving callers both a per-dispatch-variant
// and a catch-all way to observe events.
type handlers struct {
	onEvent func(guildID snowflake.ID, ev guild.Event)

	onMessageCreate func(guildID snowflake.ID, ev guild.MessageCreated)
	onMessageUpdate func(guildID snowflake.ID, ev guild.MessageUpdated)
	onMemberAdded   func(guildID snowflake.ID, ev guild.MemberAdded)
	onMemberRemoved func(guildID snowflake.ID, ev guild.MemberRemoved)
	onGuildOnline   func(guildID snowflake.ID)
	onGuildOffline  func(guildID snowflake.ID)
	onChannelCreate func(guildID snowflake.ID, ev guild.ChannelCreated)
	onChannelDelete func(guildID snowflake.ID, ev guild.ChannelDeleted)
	onReactionAdd   func(guildID snowflake.ID, ev guild.ReactionAdded)
	onVoiceEvent    func(guildID snowflake.ID, ev voice.PlayerEvent)
}

// dispatch routes one guild.Event to every callback it matches: the
// catch-all always fires, plus at most one typed convenience.
func (h *handlers) dispatch(guildID snowflake.ID, ev guild.Event) {
	if h.onEvent != nil {
		h.onEvent(guildID, ev)
	}

	switch e := ev.(type) {
	case guild.Online:
		if h.onGuildOnline != nil {
			h.onGuildOnline(guildID)
		}
	case guild.Offline:
		if h.onGuildOffline != nil {
			h.onGuildOffline(guildID)
		}
	case guild.MessageCreated:
		if h.onMessageCreate != nil {
			h.onMessageCreate(guildID, e)
		}
	case guild.MessageUpdated:
		if h.onMessageUpdate != nil {
			h.onMessageUpdate(guildID, e)
		}
	case guild.MemberAdded:
		if h.onMemberAdded != nil {
			h.onMemberAdded(guildID, e)
		}
	case guild.MemberRemoved:
		if h.onMemberRemoved != nil {
			h.onMemberRemoved(guildID, e)
		}
	case guild.ChannelCreated:
		if h.onChannelCreate != nil {
			h.onChannelCreate(guildID, e)
		}
	case guild.ChannelDeleted:
		if h.onChannelDelete != nil {
			h.onChannelDelete(guildID, e)
		}
	case guild.ReactionAdded:
		if h.onReactionAdd != nil {
			h.onReactionAdd(guildID, e)
		}
	}
}
