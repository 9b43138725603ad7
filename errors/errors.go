// Package errors defines the sentinel errors shared across the relay.
// A delivery miss (target without a live connection) is deliberately not
// represented here: it is a routine condition, not a fault.
package errors

import "fmt"

var (
	// ErrUnauthorized is returned when a user tries to delete a message
	// they did not send.
	ErrUnauthorized = fmt.Errorf("acting user is not the sender")

	// ErrNotFound is returned when a delete or forward references a
	// message id unknown to the store.
	ErrNotFound = fmt.Errorf("message not found")

	// ErrEmptyMessage is returned when a draft carries neither text nor
	// an image reference.
	ErrEmptyMessage = fmt.Errorf("message needs text or an image")

	// ErrSelfConversation is returned when sender and receiver are the
	// same user. Fan-out semantics for self-chat are undefined, so the
	// boundary rejects it.
	ErrSelfConversation = fmt.Errorf("sender and receiver are the same user")

	ErrUnknownUser  = fmt.Errorf("user not found in directory")
	ErrInvalidToken = fmt.Errorf("invalid or expired token")
	ErrWorkerPanic  = fmt.Errorf("worker panic")
)
