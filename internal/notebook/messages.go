// Package notebook holds the note creation panel and listing page state shared by every front end.
package notebook

// User-facing message texts.
const (
	MessageMissingFields = "All fields are required!!"
	MessageUploaded      = "Note uploaded successfully"
	MessageUploadFailed  = "something went wrong while creating note."
	MessageLoadFailed    = "something went wrong while loading notes."
	MessageNoNotes       = "No notes found"
)

const defaultInboxCapacity = 16

// Level classifies a message for rendering.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a transient notification.
type Message struct {
	Level Level
	Text  string
}

// Inbox is a bounded, fire-and-forget message channel.
type Inbox struct {
	messages chan Message
}

// NewInbox returns an inbox buffering up to capacity messages.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	return &Inbox{messages: make(chan Message, capacity)}
}

// Publish enqueues message without blocking. It reports false when the message was dropped.
func (i *Inbox) Publish(message Message) bool {
	if i == nil {
		return false
	}
	select {
	case i.messages <- message:
		return true
	default:
		return false
	}
}

// Success publishes a success message.
func (i *Inbox) Success(text string) bool {
	return i.Publish(Message{Level: LevelSuccess, Text: text})
}

// Error publishes an error message.
func (i *Inbox) Error(text string) bool {
	return i.Publish(Message{Level: LevelError, Text: text})
}

// Messages exposes the receive side for consumers that select on it.
func (i *Inbox) Messages() <-chan Message {
	return i.messages
}

// Drain removes and returns every buffered message.
func (i *Inbox) Drain() []Message {
	if i == nil {
		return nil
	}
	var drained []Message
	for {
		select {
		case message := <-i.messages:
			drained = append(drained, message)
		default:
			return drained
		}
	}
}
