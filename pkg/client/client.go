// Package client wires the gateway supervisor, guild demultiplexer, REST
// client, and voice player behind a single application-facing surface: a
// [Builder] that accumulates configuration and event callbacks, and the
// resulting [Client] that exposes a per-guild [GuildHandle] stream.
package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/arcweave/gatewire/internal/observe"
	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/guild"
	"github.com/arcweave/gatewire/pkg/rest"
	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
	"github.com/arcweave/gatewire/pkg/voice"
)

// commandQueueDepth bounds the outbound gateway command channel (matches
// the Supervisor's own documented bound on consumer-owned capacity).
const commandQueueDepth = 8

// Config configures a Client. See Builder for the fluent construction path
// most applications should use instead of populating this directly.
type Config struct {
	// GatewayURL is the realtime gateway endpoint to connect to.
	GatewayURL string

	// RESTBaseURL is the REST API root, e.g. "https://discord.com/api/v10".
	RESTBaseURL string

	// Token is the bot token, sent unprefixed: both the gateway Identify
	// payload and REST client add their own "Bot " prefix where needed.
	Token string

	// Intents selects which gateway dispatch categories to subscribe to.
	Intents gateway.Intents

	// Properties is the client-identification block sent with Identify.
	Properties gateway.IdentifyProperties

	// UserAgent is sent on every REST request.
	UserAgent string

	Logger  *slog.Logger
	Metrics *observe.Metrics
	Debug   *gateway.DebugSink
}

// Client is the running, connected realtime client: one gateway Supervisor,
// one guild Demux, and a voice Player per guild currently seen.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observe.Metrics

	rest       rest.Client
	supervisor *gateway.Supervisor
	demux      *guild.Demux
	commands   chan gateway.Command
	commander  *gatewayCommander

	handlers handlers

	mu            sync.RWMutex
	guilds        map[snowflake.ID]*GuildHandle
	selfUserID    snowflake.ID
	applicationID snowflake.ID
	online        bool

	cancel context.CancelFunc
	done   chan struct{}
}

// build constructs a Client from cfg and h, wiring the Demux's OnSeed
// callback before starting the Supervisor's reconnect loop.
func build(cfg Config, h handlers) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}

	commands := make(chan gateway.Command, commandQueueDepth)

	restClient := rest.NewClient(rest.Config{
		BaseURL:   cfg.RESTBaseURL,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Logger:    cfg.Logger,
		Metrics:   cfg.Metrics,
	})

	c := &Client{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "client"),
		metrics:   cfg.Metrics,
		rest:      restClient,
		commands:  commands,
		commander: &gatewayCommander{commands: commands},
		handlers:  h,
		guilds:    make(map[snowflake.ID]*GuildHandle),
		done:      make(chan struct{}),
	}

	c.demux = guild.NewDemux(commands, cfg.Logger)
	c.demux.OnSeed = c.onSeed

	c.supervisor = gateway.NewSupervisor(gateway.SupervisorConfig{
		URL:         cfg.GatewayURL,
		Token:       cfg.Token,
		Intents:     cfg.Intents,
		Properties:  cfg.Properties,
		Commands:    commands,
		OnLifecycle: c.onLifecycle,
		Logger:      cfg.Logger,
		Debug:       cfg.Debug,
	})

	return c
}

// run starts the Supervisor's reconnect loop in the background. ctx governs
// the connection's lifetime; cancel it (or call Close) to shut down.
func (c *Client) run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go func() {
		defer close(c.done)
		c.supervisor.Run(runCtx)
	}()
}

// onLifecycle is the Supervisor's single callback. It forwards the
// dispatch envelope to the Demux and tracks online/offline for readiness
// checks and voice-session reconnect signaling.
func (c *Client) onLifecycle(lc gateway.Lifecycle) {
	switch lc.Kind {
	case gateway.Online:
		c.mu.Lock()
		c.online = true
		c.mu.Unlock()
	case gateway.Offline:
		c.mu.Lock()
		c.online = false
		c.mu.Unlock()
	case gateway.SessionInvalidated:
		c.broadcastSessionInvalidated()
	case gateway.EventReceived:
		if disp, ok := lc.Event.(gateway.DispatchEvent); ok && disp.Name == gateway.DispatchReady {
			var ready gateway.Ready
			if err := json.Unmarshal(disp.Data, &ready); err == nil {
				c.mu.Lock()
				c.selfUserID = ready.User.ID
				c.applicationID = ready.Application.ID
				c.mu.Unlock()
			}
		}
	}
	c.demux.HandleLifecycle(context.Background(), lc)
}

// broadcastSessionInvalidated tells every known guild's voice player that
// the gateway session was invalidated, so a player that was Connected or
// Connecting tears down instead of holding a transport whose voice-state
// credentials are about to go stale under a fresh Identify.
func (c *Client) broadcastSessionInvalidated() {
	c.mu.RLock()
	guilds := make([]*GuildHandle, 0, len(c.guilds))
	for _, gh := range c.guilds {
		guilds = append(guilds, gh)
	}
	c.mu.RUnlock()

	for _, gh := range guilds {
		if gh.voice == nil {
			continue
		}
		select {
		case gh.voice.Updates() <- voice.Update{Kind: voice.UpdateSessionInvalidated}:
		default:
			c.logger.Warn("client: session-invalidated update dropped, player mailbox full", "guild_id", gh.id.String())
		}
	}
}

// onSeed is invoked by the Demux the first time a guild is seen. It builds
// the guild's Projection, a voice Player wired to the shared command
// channel, and starts both running in their own goroutines.
func (c *Client) onSeed(guildID snowflake.ID, initial types.Guild, recv guild.Receiver) {
	c.mu.RLock()
	selfUserID := c.selfUserID
	applicationID := c.applicationID
	c.mu.RUnlock()

	lister := &restCommandLister{rest: c.rest, applicationID: applicationID}

	gh := &GuildHandle{id: guildID, name: initial.Name, selfUserID: selfUserID, rest: c.rest}
	gh.voice = voice.NewPlayer(guildID.String(), selfUserID.String(), c.commander,
		func(ev voice.PlayerEvent) {
			if c.handlers.onVoiceEvent != nil {
				c.handlers.onVoiceEvent(guildID, ev)
			}
		}, c.logger)

	proj := guild.NewProjection(context.Background(), initial, recv, c.commands, lister,
		func(ev guild.Event) {
			c.routeVoice(gh, ev)
			c.handlers.dispatch(guildID, ev)
		}, c.logger)
	gh.projection = proj

	c.mu.Lock()
	c.guilds[guildID] = gh
	c.mu.Unlock()

	go proj.Run(context.Background())
	go gh.voice.Run(context.Background())
}

// Guild returns the handle for guildID, if the bot has seen that guild.
func (c *Client) Guild(guildID snowflake.ID) (*GuildHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gh, ok := c.guilds[guildID]
	return gh, ok
}

// Guilds returns a snapshot of every guild handle the bot currently knows.
func (c *Client) Guilds() []*GuildHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*GuildHandle, 0, len(c.guilds))
	for _, gh := range c.guilds {
		out = append(out, gh)
	}
	return out
}

// REST returns the underlying REST client for calls GuildHandle does not
// wrap directly.
func (c *Client) REST() rest.Client { return c.rest }

// Online reports whether the gateway session is currently established.
func (c *Client) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// Close sends a shutdown command to the voice player of every known guild,
// waits until each player has accepted it (or ctx ends), then tears down the
// gateway transport. It does not wait for the players to finish tearing
// down, so a voice-state update a player queues while shutting down may not
// reach the gateway.
func (c *Client) Close(ctx context.Context) error {
	c.mu.RLock()
	guilds := make([]*GuildHandle, 0, len(c.guilds))
	for _, gh := range c.guilds {
		guilds = append(guilds, gh)
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, gh := range guilds {
		if gh.voice == nil {
			continue
		}
		wg.Add(1)
		go func(gh *GuildHandle) {
			defer wg.Done()
			select {
			case gh.voice.Controls() <- voice.ControlCommand{Kind: voice.ControlShutdown}:
			case <-ctx.Done():
			}
		}(gh)
	}
	wg.Wait()

	if c.cancel != nil {
		c.cancel()
	}
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
