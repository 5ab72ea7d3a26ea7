package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/matchchat-server/internal/core"
	"github.com/vovakirdan/matchchat-server/internal/proto"
	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeFetchHistory:
		conversationID, err := parseConversationID(inbound.Data)
		if err != nil {
			return nil, nil, err
		}
		if conversationID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "conversationID is required"}, nil
		}
		return &core.Command{
			Kind:           core.CommandFetchHistory,
			ConversationID: conversationID,
		}, nil, nil
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatID is required"}, nil
		}
		return &core.Command{
			Kind:           core.CommandSendMessage,
			ConversationID: msg.ChatID,
			Send: chat.SendRequest{
				ConversationID: msg.ChatID,
				Sender:         msg.Sender,
				Receiver:       msg.Receiver,
				Content:        msg.Content,
				Timestamp:      msg.Timestamp,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

// parseConversationID accepts either a bare JSON string or {"conversationID": "..."}.
func parseConversationID(data json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	var req proto.FetchHistoryData
	if err := json.Unmarshal(data, &req); err != nil {
		return "", err
	}
	return req.ConversationID, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  protoMessage(event.Message),
		}
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventChatHistory,
			Data:  lo.Map(event.Messages, func(m core.Message, _ int) proto.Message { return protoMessage(m) }),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message, ChatID: event.ConversationID},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func protoMessage(m core.Message) proto.Message {
	return proto.Message{
		ChatID:    m.ConversationID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// MessagePayload is a message in REST request and response bodies.
type MessagePayload struct {
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID        string           `json:"id"`
	Chat      []MessagePayload `json:"chat"`
	CreatedAt string           `json:"createdAt"`
}

func conversationToResponse(conv *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		Chat:      lo.Map(conv.Messages, func(m store.Message, _ int) MessagePayload { return messageToPayload(m) }),
		CreatedAt: conv.CreatedAt.Format(time.RFC3339),
	}
}

func messageToPayload(m store.Message) MessagePayload {
	ts := m.Timestamp
	return MessagePayload{
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Content:   m.Content,
		Timestamp: &ts,
	}
}

func payloadToMessage(p MessagePayload) store.Message {
	msg := store.Message{
		Sender:   p.Sender,
		Receiver: p.Receiver,
		Content:  p.Content,
	}
	if p.Timestamp != nil {
		msg.Timestamp = p.Timestamp.UTC()
	}
	return msg
}

// ProfileEntryResponse is a match or pass entry in API responses.
type ProfileEntryResponse struct {
	MatchID        string  `json:"matchID"`
	MatchFirstName string  `json:"matchFirstName"`
	MatchLastName  string  `json:"matchLastName"`
	MatchPhotoURL  string  `json:"matchPhotoURL"`
	ConversationID *string `json:"conversationID"`
}

// ProfileResponse represents a profile in API responses.
type ProfileResponse struct {
	ID         string                 `json:"id"`
	Phone      string                 `json:"phone,omitempty"`
	FirstName  string                 `json:"firstName"`
	LastName   string                 `json:"lastName"`
	Age        int                    `json:"age"`
	Occupation string                 `json:"occupation"`
	PhotoURL   string                 `json:"photoURL"`
	Match      []ProfileEntryResponse `json:"match"`
	Pass       []ProfileEntryResponse `json:"pass"`
}

func profileToResponse(p *store.Profile) ProfileResponse {
	return ProfileResponse{
		ID:         p.ID,
		Phone:      p.Phone,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Age:        p.Age,
		Occupation: p.Occupation,
		PhotoURL:   p.PhotoURL,
		Match:      lo.Map(p.Match, func(e store.MatchEntry, _ int) ProfileEntryResponse { return entryToResponse(e) }),
		Pass:       lo.Map(p.Pass, func(e store.MatchEntry, _ int) ProfileEntryResponse { return entryToResponse(e) }),
	}
}

func entryToResponse(e store.MatchEntry) ProfileEntryResponse {
	return ProfileEntryResponse{
		MatchID:        e.MatchID,
		MatchFirstName: e.FirstName,
		MatchLastName:  e.LastName,
		MatchPhotoURL:  e.PhotoURL,
		ConversationID: e.ConversationID,
	}
}

func entryFromRequest(e ProfileEntryResponse) store.MatchEntry {
	return store.MatchEntry{
		MatchID:        e.MatchID,
		FirstName:      e.MatchFirstName,
		LastName:       e.MatchLastName,
		PhotoURL:       e.MatchPhotoURL,
		ConversationID: e.ConversationID,
	}
}
