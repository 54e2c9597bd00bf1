package config_test

import (
	"strings"
	"testing"

	"github.com/arcweave/gatewire/internal/config"
)

func TestValidate_DuplicateGuildNames(t *testing.T) {
	t.Parallel()
	yaml := `
gateway:
  url: wss://gateway.example.com
  token: tok
guilds:
  - name: home
    id: "1"
  - name: home
    id: "2"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate guild names, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_RequiresGatewayURLAndToken(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty document should decode without error, got: %v", err)
	}
	yaml := "gateway:\n  url: \"\"\n"
	_, err = config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing gateway.url/token, got nil")
	}
	if !strings.Contains(err.Error(), "gateway.url") {
		t.Errorf("error should mention gateway.url, got: %v", err)
	}
	if !strings.Contains(err.Error(), "gateway.token") {
		t.Errorf("error should mention gateway.token, got: %v", err)
	}
}

func TestValidate_UnknownIntentName(t *testing.T) {
	t.Parallel()
	yaml := `
gateway:
  url: wss://gateway.example.com
  token: tok
  intents:
    - guilds
    - not_a_real_intent
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown intent name, got nil")
	}
	if !strings.Contains(err.Error(), "not_a_real_intent") {
		t.Errorf("error should name the bad intent, got: %v", err)
	}
}

func TestValidate_BitrateOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
gateway:
  url: wss://gateway.example.com
  token: tok
voice:
  bitrate_bps: 1000000
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range bitrate, got nil")
	}
	if !strings.Contains(err.Error(), "bitrate_bps") {
		t.Errorf("error should mention bitrate_bps, got: %v", err)
	}
}

func TestValidate_WellFormedConfigIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: info
gateway:
  url: wss://gateway.example.com
  token: tok
  intents:
    - guilds
    - guild_messages
voice:
  bitrate_bps: 64000
rest:
  base_url: https://api.example.com
guilds:
  - name: home
    id: "1"
    auto_join_voice_channel_id: "2"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
guilds:
  - name: g1
    id: "1"
  - name: g1
    id: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
	if !strings.Contains(errStr, "gateway.url") {
		t.Errorf("error should mention gateway.url, got: %v", err)
	}
}

func TestIntentNames_ContainsCoreIntents(t *testing.T) {
	t.Parallel()
	want := []string{"guilds", "guild_messages", "message_content"}
	for _, w := range want {
		found := false
		for _, n := range config.IntentNames {
			if n == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("IntentNames missing %q", w)
		}
	}
}
