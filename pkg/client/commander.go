package client

import (
	"context"
	"fmt"

	"github.com/arcweave/gatewire/pkg/gateway"
	"github.com/arcweave/gatewire/pkg/snowflake"
)

// gatewayCommander adapts the Supervisor's outbound command channel to the
// narrow surface voice.Player needs to join, move, or leave a voice channel.
// It is the exact seam voice.GatewayCommander describes.
type gatewayCommander struct {
	commands chan<- gateway.Command
}

func (c *gatewayCommander) UpdateVoiceState(ctx context.Context, guildID string, channelID *string) error {
	gid, err := snowflake.Parse(guildID)
	if err != nil {
		return fmt.Errorf("client: parse guild id %q: %w", guildID, err)
	}

	var cid *snowflake.ID
	if channelID != nil {
		parsed, err := snowflake.Parse(*channelID)
		if err != nil {
			return fmt.Errorf("client: parse channel id %q: %w", *channelID, err)
		}
		cid = &parsed
	}

	cmd := gateway.UpdateVoiceState{GuildID: gid, ChannelID: cid}
	select {
	case c.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
