package core

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchchat-server/internal/metrics"
	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/store"
	"github.com/vovakirdan/matchchat-server/internal/utils"
)

// ErrHubStopped is returned when the hub is no longer running.
var ErrHubStopped = errors.New("hub stopped")

// Hub owns the live sessions and fans accepted messages out to all of them.
//
// The session set is only touched by the Run loop. Each session's commands are
// processed in their own goroutine, in submission order, so a slow store call
// stalls only the session that made it.
type Hub struct {
	chat ChatService
	log  *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
	done       chan struct{}

	sessions  *Sessions
	count     atomic.Int64
	convLocks *utils.KeyedMutex
}

// NewHub creates a hub backed by the given chat service.
func NewHub(chatSvc ChatService, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		chat:       chatSvc,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 256),
		done:       make(chan struct{}),
		sessions:   NewSessions(),
		convLocks:  utils.NewKeyedMutex(),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.sessions.CloseAll()
			h.count.Store(0)
			return
		case c := <-h.register:
			if !h.sessions.Add(c) {
				h.log.Warn().Str("session_id", c.ID).Msg("session already registered")
				continue
			}
			h.count.Add(1)
			metrics.RecordSessionOpened()
			h.log.Info().Str("session_id", c.ID).Msg("session connected")
			go h.serveClient(ctx, c)
		case c := <-h.unregister:
			if h.sessions.Remove(c) {
				h.count.Add(-1)
				metrics.RecordSessionClosed()
				h.log.Info().Str("session_id", c.ID).Msg("session disconnected")
			}
			c.Close()
		case ev := <-h.broadcast:
			delivered, dropped := h.sessions.Broadcast(ev)
			metrics.BroadcastDeliveries.Add(float64(delivered))
			metrics.BroadcastDrops.Add(float64(dropped))
			if dropped > 0 {
				h.log.Debug().
					Str("conversation_id", ev.ConversationID).
					Int("dropped", dropped).
					Msg("broadcast skipped sessions")
			}
		}
	}
}

// RegisterClient adds a session to the broadcast set.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		c.Close()
		return ErrHubStopped
	}
}

// UnregisterClient removes a session. The client is closed even if the hub has stopped.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.Close()
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	return int(h.count.Load())
}

// Send persists a message through the chat service and, once the store has accepted it,
// broadcasts it to every connected session. Failed sends are never broadcast.
// A duplicate of an already stored message is returned without a second broadcast.
func (h *Hub) Send(ctx context.Context, req chat.SendRequest) (chat.SendResult, error) {
	// Holding the conversation lock until the event is queued keeps broadcast order
	// equal to store order for that conversation.
	unlock := h.convLocks.Lock(req.ConversationID)
	defer unlock()

	res, err := h.chat.Send(ctx, req)
	if err != nil {
		coreErr := ErrorFor(err)
		metrics.RecordSendFailure(coreErr.Code)
		h.logSendFailure(req, coreErr, err)
		return chat.SendResult{}, err
	}
	if res.Duplicate {
		h.log.Debug().
			Str("conversation_id", req.ConversationID).
			Str("sender", req.Sender).
			Msg("duplicate message ignored")
		return res, nil
	}

	metrics.MessagesAccepted.Inc()
	ev := &Event{
		Kind:           EventMessage,
		ConversationID: res.ConversationID,
		Message:        messageFromStore(res.ConversationID, res.Message),
	}
	// The message is already stored, so the broadcast is queued regardless of
	// ctx. Only a stopped hub can prevent it.
	select {
	case h.broadcast <- ev:
	case <-h.done:
		return res, ErrHubStopped
	}
	return res, nil
}

func (h *Hub) logSendFailure(req chat.SendRequest, coreErr *CoreError, err error) {
	entry := h.log.Error()
	if coreErr.Code != ErrCodeStoreError {
		entry = h.log.Warn()
	}
	entry.Err(err).
		Str("conversation_id", req.ConversationID).
		Str("sender", req.Sender).
		Str("code", coreErr.Code).
		Msg("send rejected")
}

func (h *Hub) serveClient(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			h.handleCommand(ctx, c, cmd)
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandFetchHistory:
		h.handleHistory(ctx, c, cmd.ConversationID)
	case CommandSendMessage:
		h.handleSend(ctx, c, cmd.Send)
	default:
		c.deliver(ctx, &Event{Kind: EventError, Error: coreError(ErrCodeInvalidMessage, "unknown command")})
	}
}

func (h *Hub) handleHistory(ctx context.Context, c *Client, conversationID string) {
	metrics.HistoryRequests.Inc()

	messages, err := h.chat.FetchHistory(ctx, conversationID)
	if err != nil {
		coreErr := ErrorFor(err)
		h.log.Warn().Err(err).
			Str("session_id", c.ID).
			Str("conversation_id", conversationID).
			Msg("history request failed")
		c.deliver(ctx, &Event{Kind: EventError, ConversationID: conversationID, Error: coreErr})
		return
	}

	c.deliver(ctx, &Event{
		Kind:           EventHistory,
		ConversationID: conversationID,
		Messages: lo.Map(messages, func(m store.Message, _ int) Message {
			return messageFromStore(conversationID, m)
		}),
	})
}

func (h *Hub) handleSend(ctx context.Context, c *Client, req chat.SendRequest) {
	res, err := h.Send(ctx, req)
	if err != nil {
		if errors.Is(err, ErrHubStopped) || errors.Is(err, context.Canceled) {
			return
		}
		c.deliver(ctx, &Event{Kind: EventError, ConversationID: req.ConversationID, Error: ErrorFor(err)})
		return
	}
	if res.Duplicate {
		// The first send was already broadcast; confirm to the retrying session only.
		c.deliver(ctx, &Event{
			Kind:           EventMessage,
			ConversationID: res.ConversationID,
			Message:        messageFromStore(res.ConversationID, res.Message),
		})
	}
}
