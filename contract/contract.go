//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// EventSink is one live connection handle. Consume must never block the
// caller: a slow or dead connection drops the event instead.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IPresence tracks which users currently hold a live, routable
// connection. At most one sink per user; a new registration replaces
// the previous one (last-writer-wins for routing purposes).
type IPresence interface {
	Register(userID string, sink EventSink) (prev EventSink)
	Unregister(userID string, sink EventSink) bool
	Lookup(userID string) (EventSink, bool)
	Snapshot() []string
	Sinks() []EventSink
}

// IPublisher is the fan-out engine as seen by the service layer.
// Delivery is best-effort: unregistered targets are skipped silently.
type IPublisher interface {
	PublishNewMessage(ctx context.Context, m domain.Enriched)
	PublishDeletion(ctx context.Context, messageID, receiverID, actingUserID string)
	BroadcastOnlineUsers(ctx context.Context)
	DeliverTo(ctx context.Context, userID string, e event.Event) bool
}

// IMessageStore is the durable message collaborator. The relay only
// creates, reads, and deletes; it never edits a stored message.
type IMessageStore interface {
	Create(draft domain.Draft) (domain.Message, error)
	FindByID(id string) (domain.Message, error)
	FindConversation(userA, userB string) ([]domain.Message, error)
	DeleteByID(id string) error
	LastMessageAt(userA, userB string) (*time.Time, error)
}

// IUserDirectory resolves opaque user ids to display attributes.
// Upsert exists for the profile-update surface; identity itself is
// owned elsewhere.
type IUserDirectory interface {
	Resolve(userID string) (domain.Profile, error)
	List() ([]domain.Profile, error)
	Upsert(profile domain.Profile) error
}

// IObjectStore turns raw uploaded bytes into an opaque content
// reference. The relay treats the returned ref as an already-resolved
// string.
type IObjectStore interface {
	Put(data []byte) (ref string, err error)
}

// ISearchIndex is the full-text index over message bodies.
type ISearchIndex interface {
	Index(msg domain.Message) error
	Remove(id string) error
	Search(ctx context.Context, userID, query string, limit int) ([]string, error)
}

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// GetWorkerName uses reflection to retrieve the type name of the
// worker, used for logging and supervision without forcing a naming
// method onto the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
