package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/matchchat-server/internal/config"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

func TestConversationEndpoints(t *testing.T) {
	req := require.New(t)
	env := startTestServer(t)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := env.do(t, http.MethodPost, "/messages", CreateConversationRequest{
		Chat: []MessagePayload{{Sender: "u1", Receiver: "u2", Content: "hello", Timestamp: &ts}},
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	created := decode[ConversationResponse](t, resp)
	req.NotEmpty(created.ID)
	req.Len(created.Chat, 1)

	resp = env.do(t, http.MethodPut, "/sendMessages/"+created.ID, SendMessageRequest{
		Field: "chat",
		Value: MessagePayload{Sender: "u2", Receiver: "u1", Content: "hey"},
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	sent := decode[SendMessageResponse](t, resp)
	req.Equal("Message sent successfully", sent.Message)
	req.NotNil(sent.ChatMessage.Timestamp)

	resp = env.do(t, http.MethodGet, "/messages/"+created.ID, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	got := decode[ConversationResponse](t, resp)
	req.Len(got.Chat, 2)
	req.Equal("hello", got.Chat[0].Content)
	req.Equal("hey", got.Chat[1].Content)
}

func TestCreateConversationEmptyBody(t *testing.T) {
	env := startTestServer(t)

	resp := env.do(t, http.MethodPost, "/messages", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[ConversationResponse](t, resp)
	require.Empty(t, created.Chat)
}

func TestConversationErrors(t *testing.T) {
	req := require.New(t)
	env := startTestServer(t)

	resp := env.do(t, http.MethodGet, "/messages/missing", nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)
	body := decode[MessageResponse](t, resp)
	req.Equal("conversation not found", body.Message)

	resp = env.do(t, http.MethodPut, "/sendMessages/missing", SendMessageRequest{
		Field: "chat",
		Value: MessagePayload{Sender: "u1", Receiver: "u2", Content: "x"},
	})
	req.Equal(http.StatusNotFound, resp.StatusCode)

	conv, err := env.store.CreateConversation(context.Background(), nil)
	req.NoError(err)

	resp = env.do(t, http.MethodPut, "/sendMessages/"+conv.ID, SendMessageRequest{
		Field: "title",
		Value: MessagePayload{Sender: "u1", Receiver: "u2"},
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/sendMessages/"+conv.ID, SendMessageRequest{
		Field: "chat",
		Value: MessagePayload{Content: "anonymous"},
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	body = decode[MessageResponse](t, resp)
	req.NotEmpty(body.Error)
}

func TestProfileLifecycle(t *testing.T) {
	req := require.New(t)
	env := startTestServer(t)

	resp := env.do(t, http.MethodPost, "/saveData", SaveProfileRequest{
		Phone: "555-0100", FirstName: "Ann", LastName: "Lee", Age: 29, Occupation: "pilot",
	})
	req.Equal(http.StatusCreated, resp.StatusCode)
	ann := decode[ProfileResponse](t, resp)

	resp = env.do(t, http.MethodPost, "/saveData", SaveProfileRequest{Phone: "555-0100", FirstName: "Dup"})
	req.Equal(http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/saveData", SaveProfileRequest{FirstName: "Bob", Age: 31, Occupation: "pilot"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	bob := decode[ProfileResponse](t, resp)

	resp = env.do(t, http.MethodGet, "/people?occupation=pilot&age=29", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	people := decode[[]ProfileResponse](t, resp)
	req.Len(people, 1)
	req.Equal(ann.ID, people[0].ID)

	resp = env.do(t, http.MethodGet, "/people?age=old", nil)
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/getUser/555-0100", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(ann.ID, decode[ProfileResponse](t, resp).ID)

	resp = env.do(t, http.MethodGet, "/getUser/000", nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/updateData/"+ann.ID, UpdateProfileRequest{
		Field: string(store.EntryKindMatch), Value: bob.ID, MatchFirstName: "Bob",
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	updated := decode[UserUpdatedResponse](t, resp)
	req.Len(updated.User.Match, 1)
	req.Equal(bob.ID, updated.User.Match[0].MatchID)
	req.Nil(updated.User.Match[0].ConversationID)

	resp = env.do(t, http.MethodPut, "/updateData/"+ann.ID, UpdateProfileRequest{
		FirstName: "Annie", LastName: "Lee", Age: 30, Occupation: "captain",
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	updated = decode[UserUpdatedResponse](t, resp)
	req.Equal("Annie", updated.User.FirstName)
	req.Equal(30, updated.User.Age)
	req.Len(updated.User.Match, 1)

	resp = env.do(t, http.MethodGet, "/matchFound/"+ann.ID, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/user/missing", nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/updateData/missing", UpdateProfileRequest{FirstName: "X"})
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestMatchLinking(t *testing.T) {
	req := require.New(t)
	env := startTestServer(t)
	ctx := context.Background()

	ann, err := env.store.CreateProfile(ctx, &store.Profile{FirstName: "Ann"})
	req.NoError(err)
	bob, err := env.store.CreateProfile(ctx, &store.Profile{FirstName: "Bob"})
	req.NoError(err)
	_, err = env.store.AddEntry(ctx, ann.ID, store.EntryKindMatch, store.MatchEntry{MatchID: bob.ID})
	req.NoError(err)
	_, err = env.store.AddEntry(ctx, bob.ID, store.EntryKindMatch, store.MatchEntry{MatchID: ann.ID})
	req.NoError(err)

	resp := env.do(t, http.MethodPost, "/matches/conversation", EnsureConversationRequest{ProfileID: ann.ID, MatchID: bob.ID})
	req.Equal(http.StatusOK, resp.StatusCode)
	ensured := decode[EnsureConversationResponse](t, resp)
	req.NotEmpty(ensured.ConversationID)

	resp = env.do(t, http.MethodGet, "/user/"+bob.ID, nil)
	bobView := decode[ProfileResponse](t, resp)
	req.Equal(ensured.ConversationID, *bobView.Match[0].ConversationID)

	resp = env.do(t, http.MethodPut, "/updateExsistingMatch/"+ann.ID, LinkMatchRequest{Value: bob.ID, ConversationID: "other"})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("Match updated successfully", decode[MessageResponse](t, resp).Message)

	resp = env.do(t, http.MethodPut, "/updateExsistingMatch/"+ann.ID, LinkMatchRequest{Value: "stranger", ConversationID: "c"})
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/updateExsistingMatch/missing", LinkMatchRequest{Value: bob.ID, ConversationID: "c"})
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/matches/conversation", EnsureConversationRequest{ProfileID: ann.ID, MatchID: ann.ID})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestLenientMatchLink(t *testing.T) {
	env := startTestServer(t, func(c *config.Config) { c.StrictMatchLink = false })

	ann, err := env.store.CreateProfile(context.Background(), &store.Profile{FirstName: "Ann"})
	require.NoError(t, err)

	resp := env.do(t, http.MethodPut, "/updateExsistingMatch/"+ann.ID, LinkMatchRequest{Value: "stranger", ConversationID: "c"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := startTestServer(t)

	r, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/messages", nil)
	require.NoError(t, err)
	r.Header.Set("Origin", "http://localhost:3000")
	resp, err := env.ts.Client().Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProfileAgeAcceptsStringOrNumber(t *testing.T) {
	req := require.New(t)
	env := startTestServer(t)

	resp := env.do(t, http.MethodPost, "/saveData", map[string]any{"firstName": "Cy", "age": "25"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	cy := decode[ProfileResponse](t, resp)
	req.Equal(25, cy.Age)

	resp = env.do(t, http.MethodPut, "/updateData/"+cy.ID, map[string]any{"firstName": "Cy", "age": 26})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(26, decode[UserUpdatedResponse](t, resp).User.Age)

	resp = env.do(t, http.MethodPut, "/updateData/"+cy.ID, map[string]any{"firstName": "Cy", "age": " 27 "})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(27, decode[UserUpdatedResponse](t, resp).User.Age)

	resp = env.do(t, http.MethodPost, "/saveData", map[string]any{"firstName": "Dee", "age": "twenty"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/saveData", map[string]any{"firstName": "Eve", "age": "-3"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}
