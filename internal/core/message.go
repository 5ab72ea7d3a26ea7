package core

import (
	"time"

	"github.com/vovakirdan/matchchat-server/internal/store"
)

// Message is the domain model for a chat message as seen by sessions.
type Message struct {
	ConversationID string
	Sender         string
	Receiver       string
	Content        string
	Timestamp      time.Time
}

func messageFromStore(conversationID string, m store.Message) Message {
	return Message{
		ConversationID: conversationID,
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	}
}
