// Command gatewire-bot is a minimal application wiring pkg/client to a
// YAML config file: it connects to the gateway, serves health and metrics
// endpoints, and auto-joins configured voice channels as guilds come online.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/arcweave/gatewire/internal/config"
	"github.com/arcweave/gatewire/internal/health"
	"github.com/arcweave/gatewire/internal/observe"
	"github.com/arcweave/gatewire/pkg/client"
	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/snowflake"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "gatewire-bot: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "gatewire-bot: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	intents, err := resolveIntents(cfg.Gateway.Intents)
	if err != nil {
		slog.Error("failed to resolve gateway intents", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "gatewire-bot"})
	if err != nil {
		slog.Error("failed to initialise telemetry providers", "err", err)
		return 1
	}
	defer shutdownTelemetry(context.Background())

	metrics := observe.DefaultMetrics()

	var bot *client.Client
	builder := client.NewBuilder(cfg.Gateway.Token).
		WithGatewayURL(cfg.Gateway.URL).
		WithRESTBaseURL(cfg.REST.BaseURL).
		WithIntents(intents).
		WithLogger(logger).
		WithMetrics(metrics)

	if cfg.Gateway.DebugFramePath != "" {
		f, err := os.OpenFile(cfg.Gateway.DebugFramePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("failed to open debug frame file", "err", err)
			return 1
		}
		defer f.Close()
		builder.WithDebug(gateway.NewDebugSink(f))
	}

	wireAutoJoin(builder, cfg, &bot)

	bot, err = builder.Build(ctx)
	if err != nil {
		slog.Error("failed to build client", "err", err)
		return 1
	}

	mux := http.NewServeMux()
	health.New(bot.HealthChecker()).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: observe.Middleware(metrics)(mux)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health/metrics server error", "err", err)
		}
	}()

	printStartupSummary(cfg, intents)
	slog.Info("gatewire-bot ready — press Ctrl+C to shut down")

	<-ctx.Done()

	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := bot.Close(shutdownCtx); err != nil {
		slog.Error("client shutdown error", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// wireAutoJoin registers an OnGuildOnline callback that joins each guild's
// configured voice channel, if one is set, once the guild comes online.
// botRef is filled in by Builder.Build after construction; the callback only
// fires once the gateway session is live, well after that assignment.
func wireAutoJoin(b *client.Builder, cfg *config.Config, botRef **client.Client) {
	byGuildID := make(map[string]config.GuildConfig, len(cfg.Guilds))
	for _, g := range cfg.Guilds {
		if g.AutoJoinVoiceChannelID != "" {
			byGuildID[g.ID] = g
		}
	}
	if len(byGuildID) == 0 {
		return
	}

	b.OnGuildOnline(func(guildID snowflake.ID) {
		gc, ok := byGuildID[guildID.String()]
		if !ok {
			return
		}
		channelID, err := snowflake.Parse(gc.AutoJoinVoiceChannelID)
		if err != nil {
			slog.Warn("auto-join: invalid channel id in config", "guild", gc.Name, "channel_id", gc.AutoJoinVoiceChannelID, "err", err)
			return
		}

		bot := *botRef
		gh, ok := bot.Guild(guildID)
		if !ok {
			return
		}
		slog.Info("auto-join: joining configured voice channel", "guild", gc.Name, "channel_id", gc.AutoJoinVoiceChannelID)
		if err := gh.JoinVoice(context.Background(), channelID); err != nil {
			slog.Warn("auto-join: failed to join voice channel", "guild", gc.Name, "err", err)
		}
	})
}

// resolveIntents maps cfg's snake_case intent names to the gateway bitfield.
// config.IntentNames is ordered to match gateway's bit positions one for one.
func resolveIntents(names []string) (gateway.Intents, error) {
	all := []gateway.Intents{
		gateway.IntentGuilds,
		gateway.IntentGuildMembers,
		gateway.IntentGuildModeration,
		gateway.IntentGuildEmojisAndStickers,
		gateway.IntentGuildIntegrations,
		gateway.IntentGuildWebhooks,
		gateway.IntentGuildInvites,
		gateway.IntentGuildVoiceStates,
		gateway.IntentGuildPresences,
		gateway.IntentGuildMessages,
		gateway.IntentGuildMessageReactions,
		gateway.IntentGuildMessageTyping,
		gateway.IntentDirectMessages,
		gateway.IntentDirectMessageReactions,
		gateway.IntentDirectMessageTyping,
		gateway.IntentGuildMessageContent,
	}
	if len(all) != len(config.IntentNames) {
		return 0, fmt.Errorf("gatewire-bot: intent table out of sync with config.IntentNames (%d vs %d)", len(all), len(config.IntentNames))
	}

	var out gateway.Intents
	for _, name := range names {
		idx := slices.Index(config.IntentNames, name)
		if idx < 0 {
			return 0, fmt.Errorf("gatewire-bot: unknown intent name %q", name)
		}
		out |= all[idx]
	}
	return out, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printStartupSummary(cfg *config.Config, intents gateway.Intents) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        gatewire-bot — startup         ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Gateway URL     : %-19s ║\n", truncate(cfg.Gateway.URL, 19))
	fmt.Printf("║  Intent bits     : %-19d ║\n", intents)
	fmt.Printf("║  Guilds config'd : %-19d ║\n", len(cfg.Guilds))
	fmt.Printf("║  REST base URL   : %-19s ║\n", truncate(cfg.REST.BaseURL, 19))
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
