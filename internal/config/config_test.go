package config_test

import (
	"strings"
	"testing"

	"github.com/arcweave/gatewire/internal/config"
)

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

gateway:
  url: wss://gateway.example.com
  token: sk-test
  intents:
    - guilds
    - guild_messages
    - message_content
  handshake_timeout_seconds: 5
  retry_delay_seconds: 3

voice:
  bitrate_bps: 96000
  connect_timeout_seconds: 5

rest:
  base_url: https://api.example.com
  timeout_seconds: 10
  circuit_breaker:
    failure_threshold: 5
    open_seconds: 30

guilds:
  - name: home
    id: "123456789012345678"
    auto_join_voice_channel_id: "234567890123456789"
`

func TestLoadFromReader_SampleConfigParses(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Gateway.URL != "wss://gateway.example.com" {
		t.Errorf("gateway.url = %q", cfg.Gateway.URL)
	}
	if len(cfg.Gateway.Intents) != 3 {
		t.Fatalf("gateway.intents = %v, want 3 entries", cfg.Gateway.Intents)
	}
	if cfg.Voice.BitrateBps != 96000 {
		t.Errorf("voice.bitrate_bps = %d, want 96000", cfg.Voice.BitrateBps)
	}
	if len(cfg.Guilds) != 1 || cfg.Guilds[0].Name != "home" {
		t.Errorf("guilds = %+v", cfg.Guilds)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty document should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected a non-nil zero-value config")
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
gateway:
  url: wss://gateway.example.com
  token: tok
not_a_real_field: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected decode error for unknown field, got nil")
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError}
	for _, lvl := range valid {
		if !lvl.IsValid() {
			t.Errorf("%q should be valid", lvl)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error("\"trace\" should not be a valid log level")
	}
}
