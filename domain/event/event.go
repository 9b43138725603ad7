// Package event defines the closed set of events the relay emits to
// live connections. One variant per wire event name; payload fields are
// always produced server-side, never echoed from client input.
package event

import "chat-relay/domain"

// Event is implemented by every outbound variant.
type Event interface {
	// Name is the wire event name the transport puts on the envelope.
	Name() string
}

// OnlineUsers carries the full current snapshot of registered user ids.
// Broadcast to every connection on any registration change.
type OnlineUsers struct {
	UserIDs []string
}

func (OnlineUsers) Name() string { return "getOnlineUsers" }

// NewMessage carries an enriched message, emitted on send and forward.
type NewMessage struct {
	Message domain.Enriched
}

func (NewMessage) Name() string { return "newMessage" }

// MessageDeleted announces a successful deletion.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

func (MessageDeleted) Name() string { return "messageDeleted" }

// Typing signals the transition of a peer to the typing state.
// From is derived from the registered identity of the signalling
// connection.
type Typing struct {
	From string `json:"from"`
}

func (Typing) Name() string { return "typing" }

// StopTyping signals expiry or an explicit stop.
type StopTyping struct {
	From string `json:"from"`
}

func (StopTyping) Name() string { return "stopTyping" }
