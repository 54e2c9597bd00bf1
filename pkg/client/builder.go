package client

import (
	"context"
	"log/slog"

	"github.com/arcweave/gatewire/internal/observe"
	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/guild"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/voice"
)

// defaultGatewayURL is the realtime gateway endpoint used when a Builder
// does not override it.
const defaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// defaultRESTBaseURL is the REST API root used when a Builder does not
// override it.
const defaultRESTBaseURL = "https://discord.com/api/v10"

// Builder accumulates token, intents, and event-callback registration
// before a final Build/connect step, favoring a fluent With*/On* chain
// over a single large functional constructor.
type Builder struct {
	cfg Config
	h   handlers
}

// NewBuilder starts a Builder for a bot token.
func NewBuilder(token string) *Builder {
	return &Builder{
		cfg: Config{
			GatewayURL:  defaultGatewayURL,
			RESTBaseURL: defaultRESTBaseURL,
			Token:       token,
			UserAgent:   "gatewire/0",
			Properties: gateway.IdentifyProperties{
				OS:      "linux",
				Browser: "gatewire",
				Device:  "gatewire",
			},
		},
	}
}

// WithGatewayURL overrides the realtime gateway endpoint.
func (b *Builder) WithGatewayURL(url string) *Builder { b.cfg.GatewayURL = url; return b }

// WithRESTBaseURL overrides the REST API root.
func (b *Builder) WithRESTBaseURL(url string) *Builder { b.cfg.RESTBaseURL = url; return b }

// WithIntents sets the gateway dispatch categories to subscribe to.
func (b *Builder) WithIntents(intents gateway.Intents) *Builder { b.cfg.Intents = intents; return b }

// WithUserAgent overrides the REST User-Agent header.
func (b *Builder) WithUserAgent(ua string) *Builder { b.cfg.UserAgent = ua; return b }

// WithProperties overrides the Identify properties block.
func (b *Builder) WithProperties(p gateway.IdentifyProperties) *Builder {
	b.cfg.Properties = p
	return b
}

// WithLogger overrides the logger used throughout the client.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder { b.cfg.Logger = logger; return b }

// WithMetrics overrides the metrics instruments used throughout the client.
func (b *Builder) WithMetrics(m *observe.Metrics) *Builder { b.cfg.Metrics = m; return b }

// WithDebug attaches a gateway.DebugSink for raw-frame tracing.
func (b *Builder) WithDebug(d *gateway.DebugSink) *Builder { b.cfg.Debug = d; return b }

// OnEvent registers the catch-all callback fired for every guild-scoped
// event, matching the higher-level event stream a Projection emits.
func (b *Builder) OnEvent(fn func(guildID snowflake.ID, ev guild.Event)) *Builder {
	b.h.onEvent = fn
	return b
}

// OnMessageCreate registers a callback for new channel messages.
func (b *Builder) OnMessageCreate(fn func(guildID snowflake.ID, ev guild.MessageCreated)) *Builder {
	b.h.onMessageCreate = fn
	return b
}

// OnMessageUpdate registers a callback for edited channel messages.
func (b *Builder) OnMessageUpdate(fn func(guildID snowflake.ID, ev guild.MessageUpdated)) *Builder {
	b.h.onMessageUpdate = fn
	return b
}

// OnMemberAdded registers a callback for members joining (or filled in by a
// members chunk).
func (b *Builder) OnMemberAdded(fn func(guildID snowflake.ID, ev guild.MemberAdded)) *Builder {
	b.h.onMemberAdded = fn
	return b
}

// OnMemberRemoved registers a callback for members leaving or being removed.
func (b *Builder) OnMemberRemoved(fn func(guildID snowflake.ID, ev guild.MemberRemoved)) *Builder {
	b.h.onMemberRemoved = fn
	return b
}

// OnGuildOnline registers a callback fired when a guild transitions from
// unavailable to available.
func (b *Builder) OnGuildOnline(fn func(guildID snowflake.ID)) *Builder {
	b.h.onGuildOnline = fn
	return b
}

// OnGuildOffline registers a callback fired when a guild goes unavailable.
func (b *Builder) OnGuildOffline(fn func(guildID snowflake.ID)) *Builder {
	b.h.onGuildOffline = fn
	return b
}

// OnChannelCreate registers a callback for new channels.
func (b *Builder) OnChannelCreate(fn func(guildID snowflake.ID, ev guild.ChannelCreated)) *Builder {
	b.h.onChannelCreate = fn
	return b
}

// OnChannelDelete registers a callback for deleted channels.
func (b *Builder) OnChannelDelete(fn func(guildID snowflake.ID, ev guild.ChannelDeleted)) *Builder {
	b.h.onChannelDelete = fn
	return b
}

// OnReactionAdd registers a callback for added message reactions.
func (b *Builder) OnReactionAdd(fn func(guildID snowflake.ID, ev guild.ReactionAdded)) *Builder {
	b.h.onReactionAdd = fn
	return b
}

// OnVoiceEvent registers a callback for voice player state transitions
// (connected, disconnected, reconnecting, connect errors, playback finished).
func (b *Builder) OnVoiceEvent(fn func(guildID snowflake.ID, ev voice.PlayerEvent)) *Builder {
	b.h.onVoiceEvent = fn
	return b
}

// Build constructs the Client and starts its gateway reconnect loop in the
// background. ctx governs the connection's lifetime: cancel it, or call
// Client.Close, to shut down.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	c := build(b.cfg, b.h)
	c.run(ctx)
	return c, nil
}
