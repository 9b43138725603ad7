package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
	relayerrors "chat-relay/errors"
)

// MessageStore persists direct messages in BadgerDB.
//
// Two keys exist per message:
//   - "msg:{conversation}:{timestamp_padded}:{uuid}" holds the body.
//     The 19-digit zero-padded nanosecond timestamp makes the
//     lexicographical key order the chronological order, and the UUID
//     disambiguates two messages landing on the same nanosecond.
//   - "msgref:{uuid}" points at the primary key, so by-id lookups and
//     deletes don't need to know the conversation.
type MessageStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageStore(db *badger.DB, log *slog.Logger) MessageStore {
	return MessageStore{db: db, log: log}
}

type diskMessage struct {
	ID            string                `json:"id"`
	SenderID      string                `json:"senderId"`
	ReceiverID    string                `json:"receiverId"`
	Text          string                `json:"text,omitempty"`
	ImageRef      string                `json:"imageRef,omitempty"`
	CreatedAt     int64                 `json:"createdAt"`
	ReplyTo       *domain.ReplySnapshot `json:"replyTo,omitempty"`
	Forwarded     bool                  `json:"forwarded,omitempty"`
	ForwardedFrom string                `json:"forwardedFrom,omitempty"`
}

// conversationKey builds the canonical key segment for the unordered
// pair of participants, so both directions of a conversation land
// under the same prefix.
func conversationKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

func primaryKey(conv string, at time.Time, id string) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d:%s", conv, at.UnixNano(), id)
}

func refKey(id string) []byte {
	return fmt.Appendf(nil, "msgref:%s", id)
}

// Create assigns identity and creation time to the draft and persists
// it. The returned message is the stored representation.
func (m MessageStore) Create(draft domain.Draft) (domain.Message, error) {
	message := domain.Message{
		ID:            uuid.NewString(),
		SenderID:      draft.SenderID,
		ReceiverID:    draft.ReceiverID,
		Text:          draft.Text,
		ImageRef:      draft.ImageRef,
		CreatedAt:     time.Now().UTC(),
		ReplyTo:       draft.ReplyTo,
		Forwarded:     draft.Forwarded,
		ForwardedFrom: draft.ForwardedFrom,
	}

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	conv := conversationKey(message.SenderID, message.ReceiverID)
	key := primaryKey(conv, message.CreatedAt, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(refKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// FindByID resolves the ref key, then the primary key.
func (m MessageStore) FindByID(id string) (domain.Message, error) {
	var raw []byte
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey(id))
		if err != nil {
			return err
		}
		var key []byte
		if key, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, relayerrors.ErrNotFound
		}
		return domain.Message{}, err
	}

	var disk diskMessage
	if err := json.Unmarshal(raw, &disk); err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk), nil
}

// FindConversation returns every message between the two users in
// chronological order, whichever direction it was sent in.
func (m MessageStore) FindConversation(userA, userB string) ([]domain.Message, error) {
	prefix := []byte("msg:" + conversationKey(userA, userB) + ":")
	var rawMessages [][]byte

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rawMessages = append(rawMessages, raw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(rawMessages))
	for _, raw := range rawMessages {
		var disk diskMessage
		if err := json.Unmarshal(raw, &disk); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(disk))
	}
	return messages, nil
}

// DeleteByID removes both keys of a message. Deleting an unknown id
// returns ErrNotFound so callers can distinguish it from a store
// failure.
func (m MessageStore) DeleteByID(id string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(refKey(id))
	})
	if err == badger.ErrKeyNotFound {
		return relayerrors.ErrNotFound
	}
	return err
}

// LastMessageAt returns the creation time of the newest message
// between the two users, or nil when they never exchanged one.
// A reverse iterator seeks past the highest possible timestamp and
// reads a single item.
func (m MessageStore) LastMessageAt(userA, userB string) (*time.Time, error) {
	prefix := []byte("msg:" + conversationKey(userA, userB) + ":")
	var raw []byte

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var err error
		raw, err = it.Item().ValueCopy(nil)
		return err
	})
	if err != nil || raw == nil {
		return nil, err
	}

	var disk diskMessage
	if err := json.Unmarshal(raw, &disk); err != nil {
		return nil, err
	}
	return lo.ToPtr(time.Unix(0, disk.CreatedAt).UTC()), nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:            message.ID,
		SenderID:      message.SenderID,
		ReceiverID:    message.ReceiverID,
		Text:          message.Text,
		ImageRef:      message.ImageRef,
		CreatedAt:     message.CreatedAt.UnixNano(),
		ReplyTo:       message.ReplyTo,
		Forwarded:     message.Forwarded,
		ForwardedFrom: message.ForwardedFrom,
	}
}

func toMessage(disk diskMessage) domain.Message {
	return domain.Message{
		ID:            disk.ID,
		SenderID:      disk.SenderID,
		ReceiverID:    disk.ReceiverID,
		Text:          disk.Text,
		ImageRef:      disk.ImageRef,
		CreatedAt:     time.Unix(0, disk.CreatedAt).UTC(),
		ReplyTo:       disk.ReplyTo,
		Forwarded:     disk.Forwarded,
		ForwardedFrom: disk.ForwardedFrom,
	}
}
