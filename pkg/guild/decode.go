package guild

import (
	"encoding/json"
	"fmt"

	"github.com/arcweave/gatewire/pkg/gateway"
)

func decodeDispatch(disp gateway.DispatchEvent, v any) error {
	if err := json.Unmarshal(disp.Data, v); err != nil {
		return fmt.Errorf("guild: unmarshal %s: %w", disp.Name, err)
	}
	return nil
}
