package relay

import (
	"sort"
	"sync"

	"github.com/example/relay-chat/domain/chat"
)

// entry is the registry record for one open connection. user is nil until
// the connection identifies.
type entry struct {
	user *chat.User
	seq  uint64
}

// Registry maps connection identifiers to their optional identified user.
// Only the Router mutates it; the lock exists so read views can be taken
// from other goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register records an anonymous connection. Registering twice is a no-op.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connID]; !ok {
		r.entries[connID] = &entry{}
	}
}

// Identify creates or replaces the user for connID and marks it online.
// An unknown connection is registered on the way.
func (r *Registry) Identify(connID, displayName string) chat.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connID]
	if !ok {
		e = &entry{}
		r.entries[connID] = e
	}
	if e.user == nil {
		r.nextSeq++
		e.seq = r.nextSeq
	}
	e.user = &chat.User{
		ConnectionID: connID,
		DisplayName:  displayName,
		Online:       true,
	}
	return *e.user
}

// Remove deletes connID and returns the user it carried, if it had identified.
func (r *Registry) Remove(connID string) (chat.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connID]
	if !ok {
		return chat.User{}, false
	}
	delete(r.entries, connID)
	if e.user == nil {
		return chat.User{}, false
	}
	departed := *e.user
	departed.Online = false
	return departed, true
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// identified returns the identified users in identification order.
func (r *Registry) identified() []chat.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.user != nil {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	users := make([]chat.User, 0, len(list))
	for _, e := range list {
		users = append(users, *e.user)
	}
	return users
}
