package gateway

import (
	"encoding/json"
	"fmt"
)

// decodeInto unmarshals a DispatchEvent's raw Data into a typed payload,
// wrapping failures the same way Decode does.
func decodeInto(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("gateway: decode dispatch: %w: %v", ErrSerde, err)
	}
	return nil
}
