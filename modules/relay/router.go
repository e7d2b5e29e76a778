package relay

import (
	"context"
	"errors"
	"time"

	"github.com/example/relay-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// ErrRouterStopped is returned by Submit once the router loop has exited.
var ErrRouterStopped = errors.New("relay: router stopped")

// Transport delivers outbound events. Implementations must not block.
type Transport interface {
	// Broadcast delivers v to every open connection.
	Broadcast(v any)
	// SendTo delivers v to a single connection; unknown ids are ignored.
	SendTo(connID string, v any)
}

// Observer is notified of every outbound event after it was handed to the transport.
type Observer func(ctx context.Context, evt Outbound)

// Router owns the registry and the message store. Events are applied one at
// a time by the goroutine running Run, so no two mutations interleave.
type Router struct {
	registry  *Registry
	presence  *Presence
	store     *Store
	transport Transport
	observer  Observer
	logger    types.Logger
	now       func() time.Time

	inbox chan Inbound
	done  chan struct{}
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithClock overrides the time source used for receipts and generated ids.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

// WithObserver registers fn to see every outbound event.
func WithObserver(fn Observer) RouterOption {
	return func(r *Router) { r.observer = fn }
}

// WithInboxSize sets the capacity of the inbound queue.
func WithInboxSize(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.inbox = make(chan Inbound, n)
		}
	}
}

// NewRouter creates a router that fans out through transport.
func NewRouter(transport Transport, logger types.Logger, opts ...RouterOption) *Router {
	r := &Router{
		transport: transport,
		logger:    logger,
		now:       time.Now,
		inbox:     make(chan Inbound, 1024),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registry = NewRegistry()
	r.presence = NewPresence(r.registry)
	r.store = NewStore(r.now)
	return r
}

// Run applies submitted events until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Router stopped", "pending", len(r.inbox))
			return
		case in := <-r.inbox:
			r.dispatch(ctx, in)
		}
	}
}

// Submit queues in for the router loop. It blocks while the inbox is full.
func (r *Router) Submit(ctx context.Context, in Inbound) error {
	select {
	case <-r.done:
		return ErrRouterStopped
	default:
	}

	select {
	case r.inbox <- in:
		return nil
	case <-r.done:
		return ErrRouterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the router loop has exited.
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// Messages returns a snapshot of the message log.
func (r *Router) Messages() []chat.Message {
	return r.store.All()
}

// Online returns a snapshot of the online users.
func (r *Router) Online() []chat.User {
	return r.presence.Online()
}

// Connections returns the number of open connections known to the registry.
func (r *Router) Connections() int {
	return r.registry.Len()
}

func (r *Router) dispatch(ctx context.Context, in Inbound) {
	switch e := in.(type) {
	case Connect:
		r.handleConnect(ctx, e)
	case Identify:
		r.handleIdentify(ctx, e)
	case SendMessage:
		r.handleSendMessage(ctx, e)
	case SendReply:
		r.handleSendReply(ctx, e)
	case Typing:
		r.handleTyping(ctx, e)
	case MarkSeen:
		r.handleMarkSeen(ctx, e)
	case ClearChat:
		r.handleClearChat(ctx, e)
	case Disconnect:
		r.handleDisconnect(ctx, e)
	default:
		r.logger.Warn("Dropping unsupported inbound event", "type", in, "connID", in.Origin())
	}
}

func (r *Router) handleConnect(_ context.Context, e Connect) {
	r.registry.Register(e.ConnID)
	r.transport.SendTo(e.ConnID, Outbound{
		Event: EventSync,
		Data: SyncPayload{
			ConnectionID: e.ConnID,
			Messages:     r.store.All(),
			Online:       r.presence.Online(),
		},
	})
	r.logger.Debug("Connection opened", "connID", e.ConnID, "connections", r.registry.Len())
}

func (r *Router) handleIdentify(ctx context.Context, e Identify) {
	user := r.registry.Identify(e.ConnID, e.Name)
	r.logger.Info("User identified", "connID", user.ConnectionID, "name", user.DisplayName)
	r.broadcast(ctx, Outbound{
		Event: EventUserConnected,
		Data:  UserPayload{ID: user.ConnectionID, Name: user.DisplayName},
	})
}

func (r *Router) handleSendMessage(ctx context.Context, e SendMessage) {
	stored := r.store.Append(r.withID(e.Message))
	r.logger.Debug("Message appended", "connID", e.ConnID, "messageID", stored.ID.String())
	r.broadcast(ctx, Outbound{Event: EventReceiveMessage, Data: stored})
}

func (r *Router) handleSendReply(ctx context.Context, e SendReply) {
	stored := r.store.Append(r.withID(e.Message))
	r.logger.Debug("Reply appended", "connID", e.ConnID, "messageID", stored.ID.String())
	r.broadcast(ctx, Outbound{Event: EventReceiveReply, Data: stored})
}

func (r *Router) handleTyping(ctx context.Context, e Typing) {
	r.broadcast(ctx, Outbound{Event: EventUserTyping, Data: e.Data})
}

func (r *Router) handleMarkSeen(ctx context.Context, e MarkSeen) {
	receipt := r.store.MarkSeen(e.MessageID, e.Reader)
	if !receipt.Found {
		r.logger.Debug("Receipt for unknown message", "messageID", e.MessageID.String(), "reader", e.Reader)
	}

	// A new reader is announced with the timestamp the store recorded.
	var seenAt time.Time
	if receipt.Added && receipt.Message.SeenTimestamp != nil {
		seenAt = *receipt.Message.SeenTimestamp
	} else {
		seenAt = r.now()
	}

	// Clients expect message-seen even when the id is gone.
	r.broadcast(ctx, Outbound{
		Event: EventMessageSeen,
		Data: SeenPayload{
			MessageID:     e.MessageID,
			Username:      e.Reader,
			SeenTimestamp: seenAt,
		},
	})
}

func (r *Router) handleClearChat(ctx context.Context, e ClearChat) {
	r.store.Clear()
	r.logger.Info("Chat cleared", "connID", e.ConnID)
	r.broadcast(ctx, Outbound{Event: EventChatCleared})
}

func (r *Router) handleDisconnect(ctx context.Context, e Disconnect) {
	user, ok := r.registry.Remove(e.ConnID)
	if !ok {
		r.logger.Debug("Anonymous connection closed", "connID", e.ConnID)
		return
	}
	r.logger.Info("User disconnected", "connID", user.ConnectionID, "name", user.DisplayName)
	r.broadcast(ctx, Outbound{
		Event: EventUserDisconnected,
		Data:  UserPayload{ID: user.ConnectionID, Name: user.DisplayName},
	})
}

func (r *Router) broadcast(ctx context.Context, evt Outbound) {
	r.transport.Broadcast(evt)
	if r.observer != nil {
		r.observer(ctx, evt)
	}
}

func (r *Router) withID(msg chat.Message) chat.Message {
	if msg.ID.IsZero() {
		msg.ID = chat.NewMessageID(r.now())
	}
	return msg
}
