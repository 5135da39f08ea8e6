package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Wire event names for presence membership notifications.
const (
	EventMemberAdded   = "member_added"
	EventMemberRemoved = "member_removed"
)

// Presence tracks, per presence channel, the members currently joined and
// notifies existing members when membership changes. Mutations on one
// channel are linearized by a per-channel lock held across the mutation and
// its notification broadcast; different channels proceed independently.
type Presence struct {
	transport Transport
	log       *zerolog.Logger

	mu       sync.RWMutex
	channels map[string]*memberTable
}

type memberTable struct {
	mu      sync.Mutex
	members map[string]Value // keyed by connection ID
}

// NewPresence builds an empty presence tracker on top of the transport.
func NewPresence(transport Transport, logger *zerolog.Logger) *Presence {
	return &Presence{
		transport: transport,
		log:       logger,
		channels:  make(map[string]*memberTable),
	}
}

// Join records member under (channel, connID) and notifies the other members
// of the channel. Re-joining replaces the existing record instead of
// duplicating it; only a fresh join is broadcast. Returns true when the
// connection was not previously a member.
func (p *Presence) Join(ch, connID string, member Value) bool {
	t := p.acquire(ch)
	defer t.mu.Unlock()

	_, rejoin := t.members[connID]
	t.members[connID] = member
	if rejoin {
		p.log.Debug().Str("channel", ch).Str("socket_id", connID).Msg("presence rejoin, record replaced")
		return false
	}

	p.transport.BroadcastExcluding(connID, ch, EventMemberAdded, member)
	return true
}

// Leave removes the record for (channel, connID) and notifies the remaining
// members. Leaving a channel the connection never joined is a silent no-op:
// disconnects race with explicit leaves.
func (p *Presence) Leave(ch, connID string) bool {
	t := p.table(ch)
	if t == nil {
		return false
	}

	t.mu.Lock()
	member, ok := t.members[connID]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.members, connID)
	empty := len(t.members) == 0
	p.transport.BroadcastExcluding(connID, ch, EventMemberRemoved, member)
	t.mu.Unlock()

	if empty {
		p.drop(ch)
	}
	return true
}

// Members returns a snapshot of the current member set for a channel.
func (p *Presence) Members(ch string) []Value {
	t := p.table(ch)
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Value, 0, len(t.members))
	for _, m := range t.members {
		out = append(out, m)
	}
	return out
}

func (p *Presence) table(ch string) *memberTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.channels[ch]
}

// acquire returns the channel's live table with its lock held, creating it if
// absent. The outer lock is held until the table lock is taken so a
// concurrent drop cannot slip in between and orphan the table; lock order is
// always p.mu then t.mu.
func (p *Presence) acquire(ch string) *memberTable {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.channels[ch]
	if t == nil {
		t = &memberTable{members: make(map[string]Value)}
		p.channels[ch] = t
	}
	t.mu.Lock()
	return t
}

// drop removes a channel's table once its last member has left. Re-checked
// under both locks: a concurrent join may have repopulated it.
func (p *Presence) drop(ch string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.channels[ch]
	if t == nil {
		return
	}
	t.mu.Lock()
	if len(t.members) == 0 {
		delete(p.channels, ch)
	}
	t.mu.Unlock()
}
