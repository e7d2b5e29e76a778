package relay

import "github.com/example/relay-chat/domain/chat"

// Presence is a read view of the online users held by a Registry.
type Presence struct {
	registry *Registry
}

// NewPresence creates a presence view over r.
func NewPresence(r *Registry) *Presence {
	return &Presence{registry: r}
}

// Online returns every identified, still connected user in the order they identified.
func (p *Presence) Online() []chat.User {
	return p.registry.identified()
}

// Count returns the number of online users.
func (p *Presence) Count() int {
	return len(p.registry.identified())
}
