package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/matchchat-server/internal/store"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateConversation_EmptyAndSeeded(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.CreateConversation(ctx, nil)
	req.NoError(err)
	req.NotEmpty(empty.ID)
	req.Empty(empty.Messages)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seeded, err := s.CreateConversation(ctx, []store.Message{
		{Sender: "a", Receiver: "b", Content: "hello", Timestamp: at},
		{Sender: "b", Receiver: "a", Content: "hey", Timestamp: at.Add(time.Second)},
	})
	req.NoError(err)
	req.NotEqual(empty.ID, seeded.ID)
	req.Len(seeded.Messages, 2)
	req.Equal("hello", seeded.Messages[0].Content)
	req.True(seeded.Messages[1].Timestamp.Equal(at.Add(time.Second)))
}

func TestGetConversation_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetConversation(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestAppendMessage_NotFoundDoesNotCreate(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendMessage(ctx, "ghost", store.Message{Sender: "a", Receiver: "b", Content: "hi"})
	req.ErrorIs(err, store.ErrConversationNotFound)

	_, err = s.GetConversation(ctx, "ghost")
	req.ErrorIs(err, store.ErrConversationNotFound)
}

func TestAppendMessage_AssignsTimestampAndKeepsOrder(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	for i := range 5 {
		res, err := s.AppendMessage(ctx, conv.ID, store.Message{
			Sender:   "a",
			Receiver: "b",
			Content:  fmt.Sprintf("msg-%d", i),
		})
		req.NoError(err)
		req.False(res.Duplicate)
		req.False(res.Message.Timestamp.IsZero())
		req.Len(res.Conversation.Messages, i+1)
	}

	got, err := s.GetConversation(ctx, conv.ID)
	req.NoError(err)
	req.Len(got.Messages, 5)
	for i, msg := range got.Messages {
		req.Equal(fmt.Sprintf("msg-%d", i), msg.Content)
		if i > 0 {
			req.False(msg.Timestamp.Before(got.Messages[i-1].Timestamp))
		}
	}
}

func TestAppendMessage_TimestampNeverGoesBackwards(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := newTestStore(t, WithClock(clock))
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	first, err := s.AppendMessage(ctx, conv.ID, store.Message{Sender: "a", Receiver: "b", Content: "one"})
	req.NoError(err)

	now = now.Add(-time.Minute)
	second, err := s.AppendMessage(ctx, conv.ID, store.Message{Sender: "a", Receiver: "b", Content: "two"})
	req.NoError(err)
	req.False(second.Duplicate)
	req.True(second.Message.Timestamp.After(first.Message.Timestamp))
	req.Len(second.Conversation.Messages, 2)
}

func TestAppendMessage_RepeatsAfterFutureClientTimestampAreStored(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	_, err = s.AppendMessage(ctx, conv.ID, store.Message{
		Sender: "a", Receiver: "b", Content: "x", Timestamp: now.Add(time.Hour),
	})
	req.NoError(err)

	ok := store.Message{Sender: "a", Receiver: "b", Content: "ok"}
	first, err := s.AppendMessage(ctx, conv.ID, ok)
	req.NoError(err)
	req.False(first.Duplicate)
	second, err := s.AppendMessage(ctx, conv.ID, ok)
	req.NoError(err)
	req.False(second.Duplicate)
	req.True(second.Message.Timestamp.After(first.Message.Timestamp))

	got, err := s.GetConversation(ctx, conv.ID)
	req.NoError(err)
	req.Len(got.Messages, 3)
	req.Equal("ok", got.Messages[1].Content)
	req.Equal("ok", got.Messages[2].Content)
}

func TestAppendMessage_FrozenClockKeepsRepeats(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	for i := 0; i < 3; i++ {
		res, err := s.AppendMessage(ctx, conv.ID, store.Message{Sender: "a", Receiver: "b", Content: "ok"})
		req.NoError(err)
		req.False(res.Duplicate)
	}

	got, err := s.GetConversation(ctx, conv.ID)
	req.NoError(err)
	req.Len(got.Messages, 3)
}

func TestCreateConversation_KeepsRepeatedSeeds(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, []store.Message{
		{Sender: "a", Receiver: "b", Content: "hi"},
		{Sender: "a", Receiver: "b", Content: "hi"},
	})
	req.NoError(err)
	req.Len(conv.Messages, 2)
	req.True(conv.Messages[1].Timestamp.After(conv.Messages[0].Timestamp))
}

func TestAppendMessage_Dedup(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	msg := store.Message{
		Sender:    "a",
		Receiver:  "b",
		Content:   "same",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC),
	}

	first, err := s.AppendMessage(ctx, conv.ID, msg)
	req.NoError(err)
	req.False(first.Duplicate)

	second, err := s.AppendMessage(ctx, conv.ID, msg)
	req.NoError(err)
	req.True(second.Duplicate)
	req.Len(second.Conversation.Messages, 1)
	req.True(second.Message.Equal(msg))
}

func TestAppendMessage_ConcurrentAppendsAllStored(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, nil)
	req.NoError(err)

	const senders, perSender = 4, 10
	var wg sync.WaitGroup
	for sender := range senders {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for i := range perSender {
				_, err := s.AppendMessage(ctx, conv.ID, store.Message{
					Sender:   fmt.Sprintf("s%d", sender),
					Receiver: "r",
					Content:  fmt.Sprintf("%d", i),
				})
				if err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(sender)
	}
	wg.Wait()

	got, err := s.GetConversation(ctx, conv.ID)
	req.NoError(err)
	req.Len(got.Messages, senders*perSender)

	// Each sender's own messages keep submission order.
	next := make(map[string]int)
	for _, msg := range got.Messages {
		req.Equal(fmt.Sprintf("%d", next[msg.Sender]), msg.Content)
		next[msg.Sender]++
	}
}

func TestProfiles_CreateGetAndPhone(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateProfile(ctx, &store.Profile{
		Phone:     "+100",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Age:       36,
	})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Empty(created.Match)

	byPhone, err := s.GetProfileByPhone(ctx, "+100")
	req.NoError(err)
	req.Equal(created.ID, byPhone.ID)

	_, err = s.CreateProfile(ctx, &store.Profile{Phone: "+100"})
	req.ErrorIs(err, store.ErrDuplicatePhone)

	// Profiles without a phone do not collide with each other.
	_, err = s.CreateProfile(ctx, &store.Profile{FirstName: "x"})
	req.NoError(err)
	_, err = s.CreateProfile(ctx, &store.Profile{FirstName: "y"})
	req.NoError(err)

	_, err = s.GetProfile(ctx, "missing")
	req.ErrorIs(err, store.ErrProfileNotFound)
	_, err = s.GetProfileByPhone(ctx, "+999")
	req.ErrorIs(err, store.ErrProfileNotFound)
}

func TestProfiles_ListWithFilter(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []store.Profile{
		{FirstName: "Ann", Occupation: "pilot", Age: 30},
		{FirstName: "Bob", Occupation: "pilot", Age: 40},
		{FirstName: "Cid", Occupation: "chef", Age: 30},
	} {
		_, err := s.CreateProfile(ctx, &p)
		req.NoError(err)
	}

	all, err := s.ListProfiles(ctx, store.ProfileFilter{})
	req.NoError(err)
	req.Len(all, 3)

	pilots, err := s.ListProfiles(ctx, store.ProfileFilter{Occupation: "pilot"})
	req.NoError(err)
	req.Len(pilots, 2)

	age := 30
	pilots30, err := s.ListProfiles(ctx, store.ProfileFilter{Occupation: "pilot", Age: &age})
	req.NoError(err)
	req.Len(pilots30, 1)
	req.Equal("Ann", pilots30[0].FirstName)
}

func TestProfiles_EntriesAndMatchConversation(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, &store.Profile{FirstName: "Ann"})
	req.NoError(err)

	_, err = s.AddEntry(ctx, p.ID, store.EntryKindMatch, store.MatchEntry{MatchID: "bob", FirstName: "Bob"})
	req.NoError(err)
	// Same counterpart twice is a no-op.
	got, err := s.AddEntry(ctx, p.ID, store.EntryKindMatch, store.MatchEntry{MatchID: "bob", FirstName: "Robert"})
	req.NoError(err)
	req.Len(got.Match, 1)
	req.Equal("Bob", got.Match[0].FirstName)
	req.Nil(got.Match[0].ConversationID)

	got, err = s.AddEntry(ctx, p.ID, store.EntryKindPass, store.MatchEntry{MatchID: "cid"})
	req.NoError(err)
	req.Len(got.Pass, 1)

	req.NoError(s.SetMatchConversation(ctx, p.ID, "bob", "conv-1"))
	got, err = s.GetProfile(ctx, p.ID)
	req.NoError(err)
	entry, ok := got.FindMatch("bob")
	req.True(ok)
	req.NotNil(entry.ConversationID)
	req.Equal("conv-1", *entry.ConversationID)

	// Pass entries are not match entries.
	req.ErrorIs(s.SetMatchConversation(ctx, p.ID, "cid", "conv-2"), store.ErrMatchNotFound)
	req.ErrorIs(s.SetMatchConversation(ctx, "missing", "bob", "conv-2"), store.ErrProfileNotFound)

	_, err = s.AddEntry(ctx, "missing", store.EntryKindMatch, store.MatchEntry{MatchID: "bob"})
	req.ErrorIs(err, store.ErrProfileNotFound)
}

func TestProfiles_UpdateFields(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, &store.Profile{FirstName: "Ann"})
	req.NoError(err)

	updated, err := s.UpdateProfileFields(ctx, p.ID, store.ProfileFields{
		FirstName:  "Anna",
		LastName:   "Smith",
		Age:        31,
		Occupation: "pilot",
		PhotoURL:   "http://img/1",
	})
	req.NoError(err)
	req.Equal("Anna", updated.FirstName)
	req.Equal(31, updated.Age)

	_, err = s.UpdateProfileFields(ctx, "missing", store.ProfileFields{})
	req.ErrorIs(err, store.ErrProfileNotFound)
}
