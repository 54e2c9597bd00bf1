// Package config provides the configuration schema, loader, and hot-reload
// watcher for a gatewire-based bot process.
package config

// Config is the root configuration structure for a gatewire bot process.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gateway GatewayConfig `yaml:"gateway"`
	Voice   VoiceConfig   `yaml:"voice"`
	REST    RESTConfig    `yaml:"rest"`
	Guilds  []GuildConfig `yaml:"guilds"`
}

// ServerConfig holds process-wide logging and metrics settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the metrics/health HTTP server listens
	// on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the known log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// GatewayConfig configures the main realtime gateway connection.
type GatewayConfig struct {
	// URL is the gateway websocket endpoint, e.g. "wss://gateway.example.com".
	URL string `yaml:"url"`

	// Token is the bot's authentication token.
	Token string `yaml:"token"`

	// Intents lists the named intent bits to subscribe to (see
	// [IntentNames]); an empty list subscribes to no intents at all.
	Intents []string `yaml:"intents"`

	// HandshakeTimeoutSeconds bounds the connect/resume handshake. Zero
	// means use the package default (5s). cmd/gatewire-bot does not pass
	// this value to pkg/client, so the 5s default always applies there.
	HandshakeTimeoutSeconds int `yaml:"handshake_timeout_seconds"`

	// RetryDelaySeconds is the flat reconnect backoff. Zero means use the
	// package default (3s). cmd/gatewire-bot does not pass this value to
	// pkg/client, so the 3s default always applies there.
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`

	// DebugFramePath, if set, records every inbound/outbound gateway frame
	// to this file for offline inspection.
	DebugFramePath string `yaml:"debug_frame_path"`
}

// IntentNames maps the configuration file's snake_case intent names to the
// gateway package's Intents bit constants.
var IntentNames = []string{
	"guilds",
	"guild_members",
	"guild_moderation",
	"guild_expressions",
	"guild_integrations",
	"guild_webhooks",
	"guild_invites",
	"guild_voice_states",
	"guild_presences",
	"guild_messages",
	"guild_message_reactions",
	"guild_message_typing",
	"direct_messages",
	"direct_message_reactions",
	"direct_message_typing",
	"message_content",
}

// VoiceConfig configures default voice-session behaviour. Validate checks
// these values, but cmd/gatewire-bot does not pass them to pkg/client: the
// voice player always encodes at 64000 bps and bounds its handshake at 5s.
type VoiceConfig struct {
	// BitrateBps is the opus encoder's target bitrate, clamped to
	// [6000, 510000] at runtime.
	BitrateBps int `yaml:"bitrate_bps"`

	// ConnectTimeoutSeconds bounds the voice-gateway handshake. Zero means
	// use the package default (5s).
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
}

// RESTConfig configures the REST collaborator.
type RESTConfig struct {
	// BaseURL is the REST API's base address.
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds each REST call. Zero means use the package
	// default (10s). cmd/gatewire-bot does not pass this value to
	// pkg/client, so the 10s default always applies there.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// CircuitBreaker configures the per-route circuit breaker wrapping
	// outbound REST calls. cmd/gatewire-bot does not pass it to pkg/client,
	// whose REST breakers use resilience.NewCircuitBreaker's defaults.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig configures internal/resilience.CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	OpenSeconds      int `yaml:"open_seconds"`
}

// GuildConfig describes per-guild defaults the application layer may
// consult (e.g. which voice channel to auto-join).
type GuildConfig struct {
	// Name is a unique human-readable identifier for this entry (used in
	// logs and in [Diff]'s change reports).
	Name string `yaml:"name"`

	// ID is the guild's snowflake id as a string.
	ID string `yaml:"id"`

	// AutoJoinVoiceChannelID, if set, is the voice channel the bot
	// connects to automatically once the guild comes online.
	AutoJoinVoiceChannelID string `yaml:"auto_join_voice_channel_id"`
}
