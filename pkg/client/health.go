package client

import (
	"context"
	"errors"

	"github.com/arcweave/gatewire/internal/health"
)

// errOffline is returned by the readiness check while the gateway session
// is down (initial connect, or a dropped connection awaiting reconnect).
var errOffline = errors.New("client: gateway session not established")

// HealthChecker returns a health.Checker reporting the gateway session's
// online state, suitable for passing to health.New alongside any other
// dependency checks a host process wants on its /readyz endpoint.
func (c *Client) HealthChecker() health.Checker {
	return health.Checker{
		Name: "gateway",
		Check: func(_ context.Context) error {
			if !c.Online() {
				return errOffline
			}
			return nil
		},
	}
}
