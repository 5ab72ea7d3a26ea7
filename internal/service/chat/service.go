package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/matchchat-server/internal/store"
)

// ErrConversationNotFound is returned when a send or strict history read targets an unknown conversation.
var ErrConversationNotFound = store.ErrConversationNotFound

// ValidationError describes a malformed send payload.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + strings.Join(e.Fields, ", ")
}

// SendRequest is a message submitted by a client.
// Timestamp is optional; clients that retry a send reuse it so the store can drop the duplicate.
type SendRequest struct {
	ConversationID string `validate:"required"`
	Sender         string `validate:"required"`
	Receiver       string `validate:"required"`
	Content        string
	Timestamp      *time.Time
}

// SendResult is an accepted message.
type SendResult struct {
	ConversationID string
	Message        store.Message
	// Duplicate is true when the message had already been stored by an earlier identical send.
	Duplicate bool
}

// Service is the single entry point for reading and writing conversations.
type Service struct {
	store    store.ConversationStore
	validate *validator.Validate
	strict   bool
}

// Option customizes a Service.
type Option func(*Service)

// WithStrictHistory makes FetchHistory return ErrConversationNotFound instead of an empty list.
func WithStrictHistory(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// New creates a chat service on top of a conversation store.
func New(st store.ConversationStore, opts ...Option) *Service {
	s := &Service{
		store:    st,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StrictHistory reports whether missing conversations are surfaced on history reads.
func (s *Service) StrictHistory() bool {
	return s.strict
}

// CreateConversation starts a conversation, optionally seeded with messages.
func (s *Service) CreateConversation(ctx context.Context, initial []store.Message) (*store.Conversation, error) {
	conv, err := s.store.CreateConversation(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns a conversation by ID.
func (s *Service) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	return s.store.GetConversation(ctx, id)
}

// FetchHistory returns the messages of a conversation in send order.
// An unknown conversation yields an empty history unless strict mode is on.
func (s *Service) FetchHistory(ctx context.Context, conversationID string) ([]store.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) && !s.strict {
			return []store.Message{}, nil
		}
		return nil, err
	}
	return conv.Messages, nil
}

// Send validates the request and appends the message to its conversation.
// The returned message carries the timestamp the store assigned.
func (s *Service) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return SendResult{}, toValidationError(err)
	}

	msg := store.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Content:  req.Content,
	}
	if req.Timestamp != nil {
		msg.Timestamp = req.Timestamp.UTC()
	}

	res, err := s.store.AppendMessage(ctx, req.ConversationID, msg)
	if err != nil {
		return SendResult{}, err
	}

	return SendResult{
		ConversationID: req.ConversationID,
		Message:        res.Message,
		Duplicate:      res.Duplicate,
	}, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []string{err.Error()}}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s %s", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}
