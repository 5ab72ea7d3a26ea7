package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/matchchat-server/internal/store"
)

// ==== ProfileStore implementation ====

const selectProfileColumns = `
	SELECT id, COALESCE(phone, ''), first_name, last_name, age, occupation, photo_url, created_at
	FROM profiles
`

// CreateProfile persists a new profile together with any match and pass entries it carries.
func (s *SQLiteStore) CreateProfile(ctx context.Context, p *store.Profile) (*store.Profile, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	var phone sql.NullString
	if p.Phone != "" {
		phone = sql.NullString{String: p.Phone, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, phone, first_name, last_name, age, occupation, photo_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, phone, p.FirstName, p.LastName, p.Age, p.Occupation, p.PhotoURL, s.now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicatePhone
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	for _, entry := range p.Match {
		if err := insertEntry(ctx, tx, id, store.EntryKindMatch, entry); err != nil {
			return nil, err
		}
	}
	for _, entry := range p.Pass {
		if err := insertEntry(ctx, tx, id, store.EntryKindPass, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetProfile(ctx, id)
}

// GetProfile retrieves a profile by ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	row := s.db.QueryRowContext(ctx, selectProfileColumns+` WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfileByPhone retrieves a profile by phone number.
func (s *SQLiteStore) GetProfileByPhone(ctx context.Context, phone string) (*store.Profile, error) {
	row := s.db.QueryRowContext(ctx, selectProfileColumns+` WHERE phone = ?`, phone)
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadEntries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProfiles lists profiles matching the filter, oldest first.
func (s *SQLiteStore) ListProfiles(ctx context.Context, filter store.ProfileFilter) ([]*store.Profile, error) {
	var conds []string
	var args []any
	add := func(column string, value any) {
		conds = append(conds, column+" = ?")
		args = append(args, value)
	}
	if filter.Phone != "" {
		add("phone", filter.Phone)
	}
	if filter.FirstName != "" {
		add("first_name", filter.FirstName)
	}
	if filter.LastName != "" {
		add("last_name", filter.LastName)
	}
	if filter.Occupation != "" {
		add("occupation", filter.Occupation)
	}
	if filter.Age != nil {
		add("age", *filter.Age)
	}

	query := selectProfileColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	profiles := make([]*store.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		profiles = append(profiles, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	// Entries are loaded after the cursor is closed; the store runs on a single connection.
	for _, p := range profiles {
		if err := s.loadEntries(ctx, p); err != nil {
			return nil, err
		}
	}

	return profiles, nil
}

// UpdateProfileFields overwrites the scalar fields of a profile.
func (s *SQLiteStore) UpdateProfileFields(ctx context.Context, id string, fields store.ProfileFields) (*store.Profile, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET first_name = ?, last_name = ?, age = ?, occupation = ?, photo_url = ?
		WHERE id = ?
	`, fields.FirstName, fields.LastName, fields.Age, fields.Occupation, fields.PhotoURL, id)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrProfileNotFound
	}
	return s.GetProfile(ctx, id)
}

// AddEntry adds a match or pass entry unless one for the same counterpart exists.
func (s *SQLiteStore) AddEntry(ctx context.Context, profileID string, kind store.EntryKind, entry store.MatchEntry) (*store.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := profileExists(ctx, tx, profileID); err != nil {
		return nil, err
	}
	if err := insertEntry(ctx, tx, profileID, kind, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetProfile(ctx, profileID)
}

// SetMatchConversation points the match entry for matchID at conversationID.
func (s *SQLiteStore) SetMatchConversation(ctx context.Context, profileID, matchID, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := profileExists(ctx, tx, profileID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE profile_entries
		SET conversation_id = ?
		WHERE profile_id = ? AND kind = ? AND match_id = ?
	`, conversationID, profileID, store.EntryKindMatch, matchID)
	if err != nil {
		return fmt.Errorf("update match entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrMatchNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context, p *store.Profile) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, match_id, first_name, last_name, photo_url, conversation_id
		FROM profile_entries
		WHERE profile_id = ?
		ORDER BY seq ASC
	`, p.ID)
	if err != nil {
		return fmt.Errorf("query profile entries: %w", err)
	}
	defer rows.Close()

	p.Match = make([]store.MatchEntry, 0)
	p.Pass = make([]store.MatchEntry, 0)
	for rows.Next() {
		var kind store.EntryKind
		var entry store.MatchEntry
		var conversationID sql.NullString
		if err := rows.Scan(&kind, &entry.MatchID, &entry.FirstName, &entry.LastName, &entry.PhotoURL, &conversationID); err != nil {
			return fmt.Errorf("scan profile entry: %w", err)
		}
		if conversationID.Valid {
			entry.ConversationID = &conversationID.String
		}
		switch kind {
		case store.EntryKindMatch:
			p.Match = append(p.Match, entry)
		case store.EntryKindPass:
			p.Pass = append(p.Pass, entry)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*store.Profile, error) {
	var p store.Profile
	err := row.Scan(&p.ID, &p.Phone, &p.FirstName, &p.LastName, &p.Age, &p.Occupation, &p.PhotoURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func profileExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrProfileNotFound
		}
		return fmt.Errorf("query profile: %w", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, profileID string, kind store.EntryKind, entry store.MatchEntry) error {
	var conversationID sql.NullString
	if entry.ConversationID != nil {
		conversationID = sql.NullString{String: *entry.ConversationID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO profile_entries (profile_id, kind, match_id, first_name, last_name, photo_url, conversation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, profileID, kind, entry.MatchID, entry.FirstName, entry.LastName, entry.PhotoURL, conversationID)
	if err != nil {
		return fmt.Errorf("insert %s entry: %w", kind, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
