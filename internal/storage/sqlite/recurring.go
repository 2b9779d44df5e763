package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
)

// CreateTemplate persists a new recurring template.
func (s *SQLiteStore) CreateTemplate(ctx context.Context, t *models.RecurringTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	splits, err := json.Marshal(t.Splits)
	if err != nil {
		return fmt.Errorf("failed to encode template splits: %w", err)
	}

	active := 0
	if t.Active {
		active = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (id, description, amount, payer, splits, active, last_generated_month, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount, t.Payer, string(splits), active, t.LastGeneratedMonth, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// ListActiveTemplates returns all active recurring templates.
func (s *SQLiteStore) ListActiveTemplates(ctx context.Context) ([]*models.RecurringTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, payer, splits, active, last_generated_month, created_at
		 FROM recurring_templates WHERE active = 1 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.RecurringTemplate
	for rows.Next() {
		t := &models.RecurringTemplate{}
		var splits string
		var active int
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &t.Payer, &splits,
			&active, &t.LastGeneratedMonth, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.Active = active != 0
		if err := json.Unmarshal([]byte(splits), &t.Splits); err != nil {
			return nil, fmt.Errorf("failed to decode template splits: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// MarkTemplateGenerated records the month a template last materialized.
func (s *SQLiteStore) MarkTemplateGenerated(ctx context.Context, templateID, month string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE recurring_templates SET last_generated_month = ? WHERE id = ?",
		month, templateID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark template generated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check template update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", templateID, storage.ErrNotFound)
	}
	return nil
}
