package core

import (
	"context"

	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

// ChatService abstracts chat business logic for the Hub.
// This interface allows the Hub to process client commands without
// depending directly on the service layer implementation.
type ChatService interface {
	// FetchHistory returns a conversation's messages in send order.
	FetchHistory(ctx context.Context, conversationID string) ([]store.Message, error)

	// Send validates and persists a message. The Hub broadcasts only after it returns successfully.
	Send(ctx context.Context, req chat.SendRequest) (chat.SendResult, error)
}
