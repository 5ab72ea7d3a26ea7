package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeFetchHistory = "fetchChatHistory"
	InboundTypeSendMessage  = "sendMessage"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventChatHistory    = "chatHistory"
	EventReceiveMessage = "receiveMessage"
)

// FetchHistoryData asks for a conversation's messages.
// Clients may also send the conversation ID as a bare JSON string.
type FetchHistoryData struct {
	ConversationID string `json:"conversationID"`
}

// SendMessageData is a chat message from the client.
// Timestamp is optional and only needed when retrying a send.
type SendMessageData struct {
	ChatID    string     `json:"chatID"`
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Message is a chat message as delivered to clients.
type Message struct {
	ChatID    string    `json:"chatID,omitempty"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code   string `json:"code"`
	Msg    string `json:"msg"`
	ChatID string `json:"chatID,omitempty"`
}
