// Package domain contains core concepts of the relay.
// This file defines the Message aggregate and its invariants.
// Messages are immutable once persisted; the relay reads, enriches,
// and deletes them, it never edits them.
package domain

import (
	"time"

	relayerrors "chat-relay/errors"
)

// ReplySnapshot is an immutable copy of the referenced message's key
// fields, captured when the reply is sent. It is intentionally never
// re-resolved against the live message: if the original is deleted
// later, the snapshot preserves what the replier actually saw.
type ReplySnapshot struct {
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`
	SenderID string `json:"senderId"`
}

// Message is one direct message between two users.
type Message struct {
	ID         string         `json:"id"`
	SenderID   string         `json:"senderId"`
	ReceiverID string         `json:"receiverId"`
	Text       string         `json:"text,omitempty"`
	ImageRef   string         `json:"imageRef,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	ReplyTo    *ReplySnapshot `json:"replyTo,omitempty"`
	Forwarded  bool           `json:"forwarded,omitempty"`
	// ForwardedFrom holds the identity of the original sender.
	// Unlike ReplyTo it is a live reference, resolved to display
	// attributes at read time.
	ForwardedFrom string `json:"forwardedFrom,omitempty"`
}

// Draft is the caller-supplied part of a message before the store
// assigns identity and creation time.
type Draft struct {
	SenderID      string
	ReceiverID    string
	Text          string
	ImageRef      string
	ReplyTo       *ReplySnapshot
	Forwarded     bool
	ForwardedFrom string
}

// Validate checks the structural invariants a draft must satisfy
// before it may reach the store.
func (d Draft) Validate() error {
	if d.Text == "" && d.ImageRef == "" {
		return relayerrors.ErrEmptyMessage
	}
	if d.SenderID == d.ReceiverID {
		return relayerrors.ErrSelfConversation
	}
	return nil
}

// ForwardOrigin is the read-model a ForwardedFrom reference resolves to.
type ForwardOrigin struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
}

// Enriched is the delivery-ready representation of a message: identity
// fields in canonical string form, the forward origin resolved, the
// reply snapshot copied verbatim.
type Enriched struct {
	Message
	ForwardOrigin *ForwardOrigin `json:"forwardedFromUser,omitempty"`
}
