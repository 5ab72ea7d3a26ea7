package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchchat-server/internal/store"
	"github.com/vovakirdan/matchchat-server/internal/utils"
)

// Common errors for match operations.
var (
	ErrProfileNotFound = store.ErrProfileNotFound
	ErrMatchNotFound   = store.ErrMatchNotFound
	ErrSameProfile     = errors.New("cannot match a profile with itself")
)

// Store is the persistence the linker needs.
type Store interface {
	GetProfile(ctx context.Context, id string) (*store.Profile, error)
	SetMatchConversation(ctx context.Context, profileID, matchID, conversationID string) error
	CreateConversation(ctx context.Context, initial []store.Message) (*store.Conversation, error)
}

// Linker binds matches between profiles to conversations.
type Linker struct {
	store  Store
	strict bool
	pairs  *utils.KeyedMutex
	log    *zerolog.Logger
}

// New creates a match linker. In strict mode linking a missing match entry returns ErrMatchNotFound;
// otherwise it is logged and ignored.
func New(st Store, strict bool, logger *zerolog.Logger) *Linker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Linker{
		store:  st,
		strict: strict,
		pairs:  utils.NewKeyedMutex(),
		log:    logger,
	}
}

// LinkConversation sets the conversation of profileID's match entry for matchID.
// Relinking with the same ID changes nothing; a different ID overwrites.
func (l *Linker) LinkConversation(ctx context.Context, profileID, matchID, conversationID string) error {
	err := l.store.SetMatchConversation(ctx, profileID, matchID, conversationID)
	if err == nil {
		l.log.Debug().
			Str("profile_id", profileID).
			Str("match_id", matchID).
			Str("conversation_id", conversationID).
			Msg("match linked to conversation")
		return nil
	}
	if errors.Is(err, store.ErrMatchNotFound) && !l.strict {
		l.log.Warn().
			Str("profile_id", profileID).
			Str("match_id", matchID).
			Msg("match entry not found, link ignored")
		return nil
	}
	return err
}

// EnsureConversation returns the conversation shared by two matched profiles,
// creating and linking one on both sides when neither side has it yet.
// Calls for the same pair are serialized so only one conversation is ever created.
func (l *Linker) EnsureConversation(ctx context.Context, profileID, matchID string) (string, error) {
	if profileID == matchID {
		return "", ErrSameProfile
	}

	unlock := l.pairs.Lock(pairKey(profileID, matchID))
	defer unlock()

	left, err := l.store.GetProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	right, err := l.store.GetProfile(ctx, matchID)
	if err != nil {
		return "", err
	}

	leftEntry, leftOK := left.FindMatch(matchID)
	if !leftOK {
		return "", fmt.Errorf("profile %s has no match for %s: %w", profileID, matchID, ErrMatchNotFound)
	}
	rightEntry, rightOK := right.FindMatch(profileID)

	conversationID := ""
	switch {
	case leftEntry.ConversationID != nil:
		conversationID = *leftEntry.ConversationID
	case rightOK && rightEntry.ConversationID != nil:
		conversationID = *rightEntry.ConversationID
	default:
		conv, err := l.store.CreateConversation(ctx, nil)
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
		conversationID = conv.ID
		l.log.Info().
			Str("profile_id", profileID).
			Str("match_id", matchID).
			Str("conversation_id", conversationID).
			Msg("conversation created for match")
	}

	if leftEntry.ConversationID == nil || *leftEntry.ConversationID != conversationID {
		if err := l.store.SetMatchConversation(ctx, profileID, matchID, conversationID); err != nil {
			return "", fmt.Errorf("link %s: %w", profileID, err)
		}
	}
	if rightOK && (rightEntry.ConversationID == nil || *rightEntry.ConversationID != conversationID) {
		if err := l.store.SetMatchConversation(ctx, matchID, profileID, conversationID); err != nil {
			return "", fmt.Errorf("link %s: %w", matchID, err)
		}
	}

	return conversationID, nil
}

// pairKey is independent of argument order.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
