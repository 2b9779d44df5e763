package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
)

// CreateMember persists a new member keyed by its normalized key.
func (s *SQLiteStore) CreateMember(ctx context.Context, m *models.Member) error {
	if m.Key == "" {
		return fmt.Errorf("member key is required")
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (key, real_name, line_user_id, pin_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		m.Key, m.RealName, m.LineUserID, m.PINHash, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by key.
func (s *SQLiteStore) GetMember(ctx context.Context, key string) (*models.Member, error) {
	m := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		"SELECT key, real_name, line_user_id, pin_hash, created_at FROM members WHERE key = ?",
		models.MemberKey(key),
	).Scan(&m.Key, &m.RealName, &m.LineUserID, &m.PINHash, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMemberByLineID resolves a chat-platform user ID to a member.
func (s *SQLiteStore) GetMemberByLineID(ctx context.Context, lineUserID string) (*models.Member, error) {
	if lineUserID == "" {
		return nil, fmt.Errorf("empty line user id: %w", storage.ErrNotFound)
	}
	m := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		"SELECT key, real_name, line_user_id, pin_hash, created_at FROM members WHERE line_user_id = ? LIMIT 1",
		lineUserID,
	).Scan(&m.Key, &m.RealName, &m.LineUserID, &m.PINHash, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("line user %s: %w", lineUserID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by line id: %w", err)
	}
	return m, nil
}

// ListMemberKeys returns every member key, sorted ascending.
func (s *SQLiteStore) ListMemberKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM members ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan member key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return keys, nil
}

// LinkMember binds a chat-platform user ID to the member.
func (s *SQLiteStore) LinkMember(ctx context.Context, key, lineUserID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET line_user_id = ? WHERE key = ?",
		lineUserID, models.MemberKey(key),
	)
	if err != nil {
		return fmt.Errorf("failed to link member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", key, storage.ErrNotFound)
	}
	return nil
}
