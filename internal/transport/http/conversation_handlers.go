package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

// MessageSender persists and broadcasts a message.
type MessageSender interface {
	Send(ctx context.Context, req chat.SendRequest) (chat.SendResult, error)
}

// ConversationHandlers provides HTTP handlers for conversation endpoints.
type ConversationHandlers struct {
	chat   *chat.Service
	sender MessageSender
	log    *zerolog.Logger
}

// NewConversationHandlers creates conversation handlers. Sends go through sender so
// that REST messages reach websocket sessions too.
func NewConversationHandlers(chatSvc *chat.Service, sender MessageSender, logger *zerolog.Logger) *ConversationHandlers {
	return &ConversationHandlers{
		chat:   chatSvc,
		sender: sender,
		log:    logger,
	}
}

// CreateConversationRequest is the body of POST /messages. Chat is optional.
type CreateConversationRequest struct {
	Chat []MessagePayload `json:"chat"`
}

// SendMessageRequest is the body of PUT /sendMessages/:id.
type SendMessageRequest struct {
	Field string         `json:"field" binding:"required"`
	Value MessagePayload `json:"value"`
}

// CreateConversation creates a conversation.
// POST /messages
func (h *ConversationHandlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid create conversation request")
			respondError(c, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	conv, err := h.chat.CreateConversation(c.Request.Context(), lo.Map(req.Chat, func(p MessagePayload, _ int) store.Message {
		return payloadToMessage(p)
	}))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create conversation")
		respondError(c, http.StatusInternalServerError, "failed to create conversation", err)
		return
	}

	h.log.Info().Str("conversation_id", conv.ID).Int("messages", len(conv.Messages)).Msg("conversation created")
	c.JSON(http.StatusCreated, conversationToResponse(conv))
}

// GetConversation returns a conversation with its messages.
// GET /messages/:id
func (h *ConversationHandlers) GetConversation(c *gin.Context) {
	id := c.Param("id")

	conv, err := h.chat.GetConversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			respondError(c, http.StatusNotFound, "conversation not found", nil)
			return
		}
		h.log.Error().Err(err).Str("conversation_id", id).Msg("failed to get conversation")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}

	c.JSON(http.StatusOK, conversationToResponse(conv))
}

// SendMessage appends a message to the conversation's chat and broadcasts it.
// PUT /sendMessages/:id
func (h *ConversationHandlers) SendMessage(c *gin.Context) {
	id := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Field != "chat" {
		respondError(c, http.StatusBadRequest, "only the chat field can be updated", nil)
		return
	}

	res, err := h.sender.Send(c.Request.Context(), chat.SendRequest{
		ConversationID: id,
		Sender:         req.Value.Sender,
		Receiver:       req.Value.Receiver,
		Content:        req.Value.Content,
		Timestamp:      req.Value.Timestamp,
	})
	if err != nil {
		var validationErr *chat.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondError(c, http.StatusBadRequest, "invalid message", err)
		case errors.Is(err, chat.ErrConversationNotFound):
			respondError(c, http.StatusNotFound, "conversation not found", nil)
		default:
			h.log.Error().Err(err).Str("conversation_id", id).Msg("failed to send message")
			respondError(c, http.StatusInternalServerError, "error sending message", err)
		}
		return
	}

	c.JSON(http.StatusOK, SendMessageResponse{
		Message:     "Message sent successfully",
		ChatMessage: messageToPayload(res.Message),
	})
}
