package guild

import (
	"testing"

	"github.com/arcweave/gatewire/pkg/snowflake"
	"github.com/arcweave/gatewire/pkg/types"
)

func newTestProjection(t *testing.T) (*Projection, *[]Event) {
	t.Helper()
	var emitted []Event
	p := &Projection{
		guildID:  snowflake.ID(1),
		channels: map[snowflake.ID]types.Channel{},
		roles:    map[snowflake.ID]types.Role{},
		members:  map[snowflake.ID]types.Member{},
		commands: map[string]types.ApplicationCommand{},
		emit:     func(ev Event) { emitted = append(emitted, ev) },
	}
	return p, &emitted
}

func TestProjection_RoleDeleteCascades(t *testing.T) {
	t.Parallel()

	p, _ := newTestProjection(t)
	p.roles[10] = types.Role{ID: 10, Name: "mod"}
	user := &types.User{ID: 100}
	p.members[100] = types.Member{User: user, Roles: []snowflake.ID{10, 20}}

	disp := rawDispatch(t, "GUILD_ROLE_DELETE", map[string]any{"guild_id": "1", "role_id": "10"})
	p.Apply(disp)

	if _, exists := p.roles[10]; exists {
		t.Errorf("role 10 still present after delete")
	}
	m := p.members[100]
	for _, r := range m.Roles {
		if r == 10 {
			t.Errorf("member still retains deleted role id 10: %v", m.Roles)
		}
	}
	if len(m.Roles) != 1 || m.Roles[0] != 20 {
		t.Errorf("member roles = %v, want [20]", m.Roles)
	}
}

func TestProjection_MemberUpdateRoleDiff(t *testing.T) {
	t.Parallel()

	p, emitted := newTestProjection(t)
	user := &types.User{ID: 100, Username: "alice"}
	p.members[100] = types.Member{User: user, Roles: []snowflake.ID{10}}

	disp := rawDispatch(t, "GUILD_MEMBER_UPDATE", map[string]any{
		"guild_id": "1",
		"user":     map[string]any{"id": "100", "username": "alice"},
		"roles":    []string{"10", "30"},
	})
	p.Apply(disp)

	if len(*emitted) != 1 {
		t.Fatalf("emitted %d events, want 1", len(*emitted))
	}
	upd, ok := (*emitted)[0].(MemberUpdated)
	if !ok {
		t.Fatalf("emitted %T, want MemberUpdated", (*emitted)[0])
	}
	if upd.Change != ChangeRoles {
		t.Errorf("Change = %v, want ChangeRoles", upd.Change)
	}
	if upd.RoleDelta != 30 {
		t.Errorf("RoleDelta = %v, want 30", upd.RoleDelta)
	}
}

func TestProjection_MessageFilter(t *testing.T) {
	t.Parallel()

	p, emitted := newTestProjection(t)

	webhook := rawDispatch(t, "MESSAGE_CREATE", map[string]any{
		"id": "1", "channel_id": "2", "webhook_id": "999", "content": "hi",
	})
	p.Apply(webhook)
	if len(*emitted) != 0 {
		t.Fatalf("webhook message should be filtered, got %d events", len(*emitted))
	}

	nonDefault := rawDispatch(t, "MESSAGE_CREATE", map[string]any{
		"id": "2", "channel_id": "2", "type": 7,
	})
	p.Apply(nonDefault)
	if len(*emitted) != 0 {
		t.Fatalf("non-default message type should be filtered, got %d events", len(*emitted))
	}

	normal := rawDispatch(t, "MESSAGE_CREATE", map[string]any{
		"id": "3", "channel_id": "2", "content": "hello",
	})
	p.Apply(normal)
	if len(*emitted) != 1 {
		t.Fatalf("normal message should pass through, got %d events", len(*emitted))
	}
}

func TestProjection_UnknownDispatchPassesThrough(t *testing.T) {
	t.Parallel()

	p, emitted := newTestProjection(t)
	disp := rawDispatch(t, "SOME_FUTURE_EVENT", map[string]any{"guild_id": "1"})
	p.Apply(disp)

	if len(*emitted) != 1 {
		t.Fatalf("emitted %d events, want 1", len(*emitted))
	}
	if _, ok := (*emitted)[0].(Passthrough); !ok {
		t.Errorf("emitted %T, want Passthrough", (*emitted)[0])
	}
}
