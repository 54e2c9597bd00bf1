package gateway

import (
	"encoding/json"
	"testing"

	"github.com/arcweave/gatewire/pkg/snowflake"
)

func TestEncode_Heartbeat(t *testing.T) {
	t.Parallel()

	b, err := Encode(Heartbeat(42))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(b) != `{"op":1,"d":42}` {
		t.Errorf("Encode(Heartbeat(42)) = %s, want {\"op\":1,\"d\":42}", b)
	}
}

func TestDecode_Hello(t *testing.T) {
	t.Parallel()

	raw := `{"t":null,"s":null,"op":10,"d":{"heartbeat_interval":123456}}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	hello, ok := ev.(HelloEvent)
	if !ok {
		t.Fatalf("Decode() type = %T, want HelloEvent", ev)
	}
	if hello.HeartbeatIntervalMS != 123456 {
		t.Errorf("HeartbeatIntervalMS = %d, want 123456", hello.HeartbeatIntervalMS)
	}
}

func TestDecode_UnknownOp(t *testing.T) {
	t.Parallel()

	raw := `{"op":99,"d":{"heartbeat_interval":123456}}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	unk, ok := ev.(UnknownEvent)
	if !ok {
		t.Fatalf("Decode() type = %T, want UnknownEvent", ev)
	}
	if unk.Name() != "99" {
		t.Errorf("Name() = %q, want \"99\"", unk.Name())
	}
}

func TestDecode_Ready(t *testing.T) {
	t.Parallel()

	raw := `{"op":0,"t":"READY","s":1,"d":{
		"session_id":"abc123",
		"user":{"id":"1","username":"test","discriminator":"0001"},
		"application":{"id":"2"},
		"guilds":[{"unavailable":true,"id":"191300962226790300"}]
	}}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	disp, ok := ev.(DispatchEvent)
	if !ok {
		t.Fatalf("Decode() type = %T, want DispatchEvent", ev)
	}
	if disp.Name != DispatchReady {
		t.Fatalf("Name = %q, want READY", disp.Name)
	}

	var ready Ready
	if err := json.Unmarshal(disp.Data, &ready); err != nil {
		t.Fatalf("Unmarshal Ready payload: %v", err)
	}
	if ready.User.Username != "test" {
		t.Errorf("User.Username = %q, want test", ready.User.Username)
	}
	want, _ := snowflake.Parse("191300962226790300")
	if len(ready.Guilds) != 1 || ready.Guilds[0].ID != want {
		t.Errorf("Guilds = %+v, want single guild %v", ready.Guilds, want)
	}
}

func TestIntentGuildAll(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(IntentGuildAll)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != "4095" {
		t.Errorf("IntentGuildAll serializes as %s, want 4095", b)
	}
}

func TestDecode_InvalidSession(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"op":9,"d":false}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	inv, ok := ev.(InvalidSessionEvent)
	if !ok {
		t.Fatalf("Decode() type = %T, want InvalidSessionEvent", ev)
	}
	if inv.Resumable {
		t.Errorf("Resumable = true, want false")
	}
}

func TestEncode_Identify(t *testing.T) {
	t.Parallel()

	b, err := Encode(Identify{
		Token:      "tok",
		Properties: IdentifyProperties{OS: "linux", Browser: "gatewire", Device: "gatewire"},
		Intents:    IntentGuildAll,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out struct {
		Op int `json:"op"`
		D  struct {
			Token   string `json:"token"`
			Intents int    `json:"intents"`
		} `json:"d"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal round-trip: %v", err)
	}
	if out.Op != int(OpIdentify) {
		t.Errorf("op = %d, want %d", out.Op, OpIdentify)
	}
	if out.D.Token != "tok" || out.D.Intents != 4095 {
		t.Errorf("d = %+v, want token=tok intents=4095", out.D)
	}
}
