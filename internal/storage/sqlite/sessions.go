package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nattw/harnkan/internal/session"
	"github.com/nattw/harnkan/internal/storage"
)

// GetSession retrieves the in-progress entry session for a chat user.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*session.Session, error) {
	sess := &session.Session{UserID: userID}
	var step, draft string
	err := s.db.QueryRowContext(ctx,
		"SELECT step, draft, updated_at FROM sessions WHERE user_id = ?",
		userID,
	).Scan(&step, &draft, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session for %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.Step = session.Step(step)
	if err := json.Unmarshal([]byte(draft), &sess.Draft); err != nil {
		return nil, fmt.Errorf("failed to decode session draft: %w", err)
	}
	return sess, nil
}

// PutSession creates or replaces the user's session.
func (s *SQLiteStore) PutSession(ctx context.Context, sess *session.Session) error {
	draft, err := json.Marshal(sess.Draft)
	if err != nil {
		return fmt.Errorf("failed to encode session draft: %w", err)
	}
	if sess.UpdatedAt == 0 {
		sess.UpdatedAt = time.Now().Unix()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, step, draft, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET step = excluded.step, draft = excluded.draft, updated_at = excluded.updated_at`,
		sess.UserID, string(sess.Step), string(draft), sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// DeleteSession removes the user's session, if any.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
