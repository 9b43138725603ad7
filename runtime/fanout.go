package runtime

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"
)

// Fanout resolves target connections through the presence registry and
// delivers events to them.
//
// It provides best-effort delivery with no guarantees regarding
// ordering across users, durability, or retries. Fanout is not a
// message broker: a target without a live connection is skipped, and
// each delivery attempt is isolated from the others' outcome.
//
// Fanout is safe for concurrent use by multiple goroutines.
type Fanout struct {
	log      *slog.Logger
	presence contract.IPresence
	stats    *observability.DeliveryStats
}

func NewFanout(log *slog.Logger, presence contract.IPresence, stats *observability.DeliveryStats) *Fanout {
	return &Fanout{log: log, presence: presence, stats: stats}
}

// DeliverTo sends e to userID's current connection, if any. Reports
// whether a sink was found; a miss is an expected condition and is
// only counted, never surfaced as an error.
func (f *Fanout) DeliverTo(ctx context.Context, userID string, e event.Event) bool {
	sink, ok := f.presence.Lookup(userID)
	if !ok {
		f.stats.Dropped()
		f.log.Debug("delivery miss, target offline", "user_id", userID, "event", e.Name())
		return false
	}
	f.consume(ctx, sink, e)
	return true
}

// PublishNewMessage delivers a newMessage event to both the receiver
// and the sender. Self-delivery lets the sender's other open views
// observe the send without a second local echo path.
func (f *Fanout) PublishNewMessage(ctx context.Context, m domain.Enriched) {
	evt := event.NewMessage{Message: m}
	f.DeliverTo(ctx, m.ReceiverID, evt)
	f.DeliverTo(ctx, m.SenderID, evt)
}

// PublishDeletion delivers a messageDeleted event to the receiver and
// to the acting user's own connection.
func (f *Fanout) PublishDeletion(ctx context.Context, messageID, receiverID, actingUserID string) {
	evt := event.MessageDeleted{MessageID: messageID}
	f.DeliverTo(ctx, receiverID, evt)
	f.DeliverTo(ctx, actingUserID, evt)
}

// BroadcastOnlineUsers pushes the current presence snapshot to every
// registered connection, the new or departing one included.
func (f *Fanout) BroadcastOnlineUsers(ctx context.Context) {
	evt := event.OnlineUsers{UserIDs: f.presence.Snapshot()}
	for _, sink := range f.presence.Sinks() {
		f.consume(ctx, sink, evt)
	}
}

func (f *Fanout) consume(ctx context.Context, sink contract.EventSink, e event.Event) {
	if err := sink.Consume(ctx, e); err != nil {
		// The sink dropped the event (full buffer or dead
		// connection). Disconnect during an in-flight deliver is a
		// drop, not an error.
		f.stats.Dropped()
		f.log.Debug("sink rejected event", "event", e.Name(), "error", err)
		return
	}
	f.stats.Delivered()
}
