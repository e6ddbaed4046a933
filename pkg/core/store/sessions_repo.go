package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"finmodel/pkg/core/session"
)

// querier is the subset of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		chat_id    BIGINT PRIMARY KEY,
		session_id TEXT NOT NULL,
		step       SMALLINT NOT NULL,
		inputs     JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PGSessionStore keeps one row per chat with an unfinished form. Rows are
// deleted once the form is handed to the projection.
type PGSessionStore struct {
	db querier
}

var _ session.Store = (*PGSessionStore)(nil)

// NewPGSessionStore creates a session repository. db is normally a *pgxpool.Pool.
func NewPGSessionStore(db querier) *PGSessionStore {
	return &PGSessionStore{db: db}
}

// EnsureSchema creates the sessions table if missing.
func (r *PGSessionStore) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return ErrNotInitialized
	}
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create chat_sessions: %w", err)
	}
	return nil
}

// Get loads the session for chatID, or session.ErrNotFound.
func (r *PGSessionStore) Get(ctx context.Context, chatID int64) (*session.Session, error) {
	if r.db == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT session_id, step, inputs, updated_at
		FROM chat_sessions
		WHERE chat_id = $1
	`

	var (
		s         = session.Session{ChatID: chatID}
		step      int16
		inputsRaw []byte
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, query, chatID).Scan(&s.ID, &step, &inputsRaw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}

	if err := json.Unmarshal(inputsRaw, &s.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs for session %d: %w", chatID, err)
	}
	s.Step = session.Step(step)
	s.UpdatedAt = updatedAt
	return &s, nil
}

// Save upserts the session row for s.ChatID.
func (r *PGSessionStore) Save(ctx context.Context, s *session.Session) error {
	if r.db == nil {
		return ErrNotInitialized
	}

	inputsJSON, err := json.Marshal(s.Inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}

	query := `
		INSERT INTO chat_sessions (chat_id, session_id, step, inputs, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id)
		DO UPDATE SET
			session_id = EXCLUDED.session_id,
			step = EXCLUDED.step,
			inputs = EXCLUDED.inputs,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query, s.ChatID, s.ID, int16(s.Step), inputsJSON, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %d: %w", s.ChatID, err)
	}
	return nil
}

// Delete removes the row for chatID. Deleting a missing row is not an error.
func (r *PGSessionStore) Delete(ctx context.Context, chatID int64) error {
	if r.db == nil {
		return ErrNotInitialized
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", chatID, err)
	}
	return nil
}
