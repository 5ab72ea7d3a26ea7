package http

import (
	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of status and error responses.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// UserUpdatedResponse is returned after a profile change.
type UserUpdatedResponse struct {
	Message string          `json:"message"`
	User    ProfileResponse `json:"user"`
}

// SendMessageResponse is returned after a REST send.
type SendMessageResponse struct {
	Message     string         `json:"message"`
	ChatMessage MessagePayload `json:"chatMessage"`
}

// EnsureConversationResponse is returned by the match conversation endpoint.
type EnsureConversationResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationID"`
}

func respondError(c *gin.Context, status int, message string, err error) {
	body := MessageResponse{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	c.JSON(status, body)
}
