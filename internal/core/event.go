package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers a conversation's messages to the session that asked for them.
	EventHistory EventKind = iota
	// EventMessage announces a newly accepted message.
	EventMessage
	// EventError notifies the originating session that its command failed.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind           EventKind
	ConversationID string
	Message        Message
	Messages       []Message // For EventHistory
	Error          *CoreError
}
