package domain

// SendCommand is the intent to send a new message, produced by the
// HTTP layer. SenderID always comes from the authenticated caller.
type SendCommand struct {
	SenderID   string
	ReceiverID string
	Text       string
	ImageRef   string
	ReplyTo    *ReplySnapshot
}

// ForwardCommand is the intent to forward an existing message to a new
// recipient.
type ForwardCommand struct {
	ActingUserID string
	MessageID    string
	ReceiverID   string
}
