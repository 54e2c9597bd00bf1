// Package guild implements the event demultiplexer, the guild registry, and
// per-guild state projection: routing dispatch events to per-guild
// mailboxes and maintaining each guild's local channel/role/member/command
// model.
package guild

import "github.com/arcweave/gatewire/pkg/gateway"

// mailboxCapacity is the bound on a per-guild event channel.
const mailboxCapacity = 16

// mailbox is a send-or-drop wrapper around a guild's event channel. Once
// Clear is called (the projection disconnected) every subsequent Send is a
// silent no-op: the sender slot goes from "Some" to "None".
type mailbox struct {
	ch     chan gateway.Event
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan gateway.Event, mailboxCapacity)}
}

// send attempts a non-blocking delivery. It reports whether the event was
// delivered; false means "dropped" (full) or "absent" (cleared), and the
// caller logs a warning either way — never block the demultiplexer.
func (m *mailbox) send(ev gateway.Event) bool {
	if m.closed {
		return false
	}
	select {
	case m.ch <- ev:
		return true
	default:
		return false
	}
}

// clear drops the sender side: future sends are silently discarded.
func (m *mailbox) clear() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}

// Receiver is the consumer-facing handle to a guild's mailbox, handed to
// the application when a new guild is seeded.
type Receiver <-chan gateway.Event
