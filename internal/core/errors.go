package core

import (
	"errors"

	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

// Error codes for domain errors.
const (
	ErrCodeConversationNotFound = "conversation_not_found"
	ErrCodeBadRequest           = "bad_request"
	ErrCodeStoreError           = "store_error"
	ErrCodeRateLimited          = "rate_limited"
	ErrCodeInvalidMessage       = "invalid_message"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorFor classifies a service error into a client-facing CoreError.
func ErrorFor(err error) *CoreError {
	var validation *chat.ValidationError
	switch {
	case errors.As(err, &validation):
		return coreError(ErrCodeBadRequest, validation.Error())
	case errors.Is(err, store.ErrConversationNotFound):
		return coreError(ErrCodeConversationNotFound, "conversation not found")
	default:
		return coreError(ErrCodeStoreError, "message could not be stored")
	}
}
