// Package bot connects the chat transport to the session guard, the
// window session, and the keystroke protocol.
package bot

// Event is one normalized inbound chat event. Immutable once received.
type Event struct {
	Sender       int64  // chat identity of the sender
	Target       int64  // reply destination
	Text         string // raw message text (empty for callbacks)
	IsCallback   bool
	CallbackID   string
	CallbackData string
	MessageID    int // id of the message carrying the event
}

// Chat is the outbound side of the transport.
type Chat interface {
	SendText(target int64, text string) error
	// SendPhoto sends an image with a single inline button.
	SendPhoto(target int64, path, buttonLabel, buttonData string) error
	// EditPhoto replaces the image of a previously sent photo message.
	EditPhoto(target int64, messageID int, path, buttonLabel, buttonData string) error
	// AckCallback acknowledges a callback so the chat UI stops spinning.
	AckCallback(callbackID string) error
}
