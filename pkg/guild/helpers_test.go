package guild

import (
	"encoding/json"
	"testing"

	"github.com/arcweave/gatewire/pkg/gateway"
)

func rawDispatch(t *testing.T, name string, payload map[string]any) gateway.DispatchEvent {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return gateway.DispatchEvent{Name: name, Data: b}
}
