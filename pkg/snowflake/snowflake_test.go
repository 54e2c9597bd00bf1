package snowflake

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	id, err := Parse("175928847299117063")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := time.Date(2016, time.April, 30, 11, 18, 25, 796_000_000, time.UTC)
	if got := id.Timestamp(); !got.Equal(want) {
		t.Errorf("Timestamp() = %v, want %v", got, want)
	}
	if got := id.WorkerID(); got != 1 {
		t.Errorf("WorkerID() = %d, want 1", got)
	}
	if got := id.ProcessID(); got != 0 {
		t.Errorf("ProcessID() = %d, want 0", got)
	}
	if got := id.Increment(); got != 7 {
		t.Errorf("Increment() = %d, want 7", got)
	}
}

func TestUnmarshalJSON_StringOrNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"quoted string", `"191300962226790300"`, 191300962226790300},
		{"bare number", `191300962226790300`, 191300962226790300},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var id ID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal(%q): %v", tt.in, err)
			}
			if id != tt.want {
				t.Errorf("got %d, want %d", id, tt.want)
			}
		})
	}
}

func TestMarshalJSON_AlwaysString(t *testing.T) {
	t.Parallel()
	id := ID(42)
	b, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"42"` {
		t.Errorf("Marshal(42) = %s, want \"42\"", b)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	id := ID(123456789012345678)
	b, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got ID
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != id {
		t.Errorf("round trip = %d, want %d", got, id)
	}
}
