package core

import "github.com/vovakirdan/matchchat-server/internal/service/chat"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandFetchHistory replays a conversation to the requesting session.
	CommandFetchHistory CommandKind = iota
	// CommandSendMessage appends a message and broadcasts it to every session.
	CommandSendMessage
)

// Command represents an action requested by a client.
type Command struct {
	Kind           CommandKind
	ConversationID string
	Send           chat.SendRequest
}
