package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConversationNotFound is returned when a conversation ID does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrProfileNotFound is returned when a profile ID or phone does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrMatchNotFound is returned when a profile has no match entry for the counterpart.
	ErrMatchNotFound = errors.New("match not found")
	// ErrDuplicatePhone is returned when a profile is created with a phone already in use.
	ErrDuplicatePhone = errors.New("phone already registered")
)

// Message is one chat line inside a conversation.
// Two messages are equal when sender, receiver, content and timestamp all match.
type Message struct {
	Sender    string
	Receiver  string
	Content   string
	Timestamp time.Time
}

// Equal reports whether both messages carry the same payload.
func (m Message) Equal(other Message) bool {
	return m.Sender == other.Sender &&
		m.Receiver == other.Receiver &&
		m.Content == other.Content &&
		m.Timestamp.Equal(other.Timestamp)
}

// Conversation is an ordered, append-only message list.
type Conversation struct {
	ID        string
	Messages  []Message
	CreatedAt time.Time
}

// AppendResult describes the outcome of an append.
type AppendResult struct {
	// Message is the message as stored, with its final timestamp.
	Message Message
	// Conversation is the conversation state after the append.
	Conversation *Conversation
	// Duplicate is true when an equal message already existed and nothing was written.
	Duplicate bool
}

// EntryKind selects which list of a profile an entry belongs to.
type EntryKind string

const (
	EntryKindMatch EntryKind = "match"
	EntryKindPass  EntryKind = "pass"
)

// MatchEntry is a match or pass record embedded in a profile.
type MatchEntry struct {
	MatchID        string
	FirstName      string
	LastName       string
	PhotoURL       string
	ConversationID *string // nil until a conversation is linked
}

// Profile is a user of the matching application.
type Profile struct {
	ID         string
	Phone      string
	FirstName  string
	LastName   string
	Age        int
	Occupation string
	PhotoURL   string
	Match      []MatchEntry
	Pass       []MatchEntry
	CreatedAt  time.Time
}

// FindMatch returns the match entry for the given counterpart.
func (p *Profile) FindMatch(matchID string) (MatchEntry, bool) {
	for _, entry := range p.Match {
		if entry.MatchID == matchID {
			return entry, true
		}
	}
	return MatchEntry{}, false
}

// ProfileFields holds the mutable scalar fields of a profile.
type ProfileFields struct {
	FirstName  string
	LastName   string
	Age        int
	Occupation string
	PhotoURL   string
}

// ProfileFilter is an equality filter for listing profiles. Empty fields are ignored.
type ProfileFilter struct {
	Phone      string
	FirstName  string
	LastName   string
	Occupation string
	Age        *int
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// CreateConversation persists a new conversation seeded with the given messages.
	// Messages without a timestamp get the creation time.
	CreateConversation(ctx context.Context, initial []Message) (*Conversation, error)

	// GetConversation retrieves a conversation with its messages in insertion order.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// AppendMessage adds msg to the conversation unless an equal message is already stored.
	// A zero timestamp is replaced with the append time. It never creates a conversation.
	AppendMessage(ctx context.Context, id string, msg Message) (AppendResult, error)
}

// ProfileStore handles profile persistence.
type ProfileStore interface {
	// CreateProfile persists a new profile and returns it with its assigned ID.
	CreateProfile(ctx context.Context, p *Profile) (*Profile, error)

	// GetProfile retrieves a profile by ID with its match and pass entries.
	GetProfile(ctx context.Context, id string) (*Profile, error)

	// GetProfileByPhone retrieves a profile by phone number.
	GetProfileByPhone(ctx context.Context, phone string) (*Profile, error)

	// ListProfiles lists profiles matching the filter.
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]*Profile, error)

	// UpdateProfileFields overwrites the scalar fields of a profile.
	UpdateProfileFields(ctx context.Context, id string, fields ProfileFields) (*Profile, error)

	// AddEntry adds a match or pass entry unless one for the same counterpart exists.
	AddEntry(ctx context.Context, profileID string, kind EntryKind, entry MatchEntry) (*Profile, error)

	// SetMatchConversation points the match entry for matchID at conversationID.
	SetMatchConversation(ctx context.Context, profileID, matchID, conversationID string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	ConversationStore
	ProfileStore

	// Close closes the underlying database connection.
	Close() error
}
