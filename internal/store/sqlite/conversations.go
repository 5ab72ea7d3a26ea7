package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/matchchat-server/internal/store"
)

// ==== ConversationStore implementation ====

// CreateConversation persists a new conversation seeded with the given messages.
func (s *SQLiteStore) CreateConversation(ctx context.Context, initial []store.Message) (*store.Conversation, error) {
	id := uuid.NewString()
	createdAt := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES (?, ?)`,
		id, createdAt,
	); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	var last int64
	for _, msg := range initial {
		ts := msg.Timestamp.UnixNano()
		if msg.Timestamp.IsZero() {
			// Unstamped seeds each get their own instant so repeats are kept.
			ts = max(createdAt.UnixNano(), last+1)
		}
		last = max(last, ts)
		if _, err := tx.ExecContext(ctx, insertMessageQuery, id, msg.Sender, msg.Receiver, msg.Content, ts); err != nil {
			return nil, fmt.Errorf("insert seed message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetConversation(ctx, id)
}

// GetConversation retrieves a conversation with its messages in insertion order.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	return getConversation(ctx, s.db, id)
}

// AppendMessage adds msg to the conversation unless an equal message is already stored.
// Appends to the same conversation are serialized so the duplicate check, the timestamp
// assignment and the insert happen as one step.
func (s *SQLiteStore) AppendMessage(ctx context.Context, id string, msg store.Message) (store.AppendResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.AppendResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	var lastTS sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT MAX(ts_nano) FROM messages WHERE conversation_id = c.id)
		FROM conversations c
		WHERE c.id = ?
	`, id).Scan(&lastTS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.AppendResult{}, store.ErrConversationNotFound
		}
		return store.AppendResult{}, fmt.Errorf("query conversation: %w", err)
	}

	ts := msg.Timestamp.UnixNano()
	if msg.Timestamp.IsZero() {
		// Server-assigned timestamps are strictly after every stored one.
		ts = s.now().UnixNano()
		if lastTS.Valid && ts <= lastTS.Int64 {
			ts = lastTS.Int64 + 1
		}
	}
	msg.Timestamp = time.Unix(0, ts).UTC()

	result, err := tx.ExecContext(ctx, insertMessageQuery, id, msg.Sender, msg.Receiver, msg.Content, ts)
	if err != nil {
		return store.AppendResult{}, fmt.Errorf("insert message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return store.AppendResult{}, fmt.Errorf("rows affected: %w", err)
	}

	conv, err := getConversation(ctx, tx, id)
	if err != nil {
		return store.AppendResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.AppendResult{}, fmt.Errorf("commit transaction: %w", err)
	}

	return store.AppendResult{
		Message:      msg,
		Conversation: conv,
		Duplicate:    affected == 0,
	}, nil
}

const insertMessageQuery = `
	INSERT OR IGNORE INTO messages (conversation_id, sender, receiver, content, ts_nano)
	VALUES (?, ?, ?, ?, ?)
`

func getConversation(ctx context.Context, q querier, id string) (*store.Conversation, error) {
	var conv store.Conversation
	err := q.QueryRowContext(ctx, `
		SELECT id, created_at
		FROM conversations
		WHERE id = ?
	`, id).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrConversationNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT sender, receiver, content, ts_nano
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	conv.Messages = make([]store.Message, 0)
	for rows.Next() {
		var msg store.Message
		var ts int64
		if err := rows.Scan(&msg.Sender, &msg.Receiver, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Timestamp = time.Unix(0, ts).UTC()
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return &conv, nil
}
