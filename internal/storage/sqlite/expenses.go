package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nattw/harnkan/internal/models"
)

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.PaymentType == "" {
		e.PaymentType = models.PaymentNormal
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, date, description, amount, payer, payment_type, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.Description, e.Amount, e.Payer, e.PaymentType, e.GroupID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for member, share := range e.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member_key, share) VALUES (?, ?, ?)",
			e.ID, member, share,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpensesByMonth returns all expenses for a "2006-01" month, oldest first.
func (s *SQLiteStore) ListExpensesByMonth(ctx context.Context, month string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, description, amount, payer, payment_type, group_id, created_at
		 FROM expenses WHERE date LIKE ? || '-%' ORDER BY date, created_at`,
		month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{Splits: make(map[string]float64)}
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Amount, &e.Payer,
			&e.PaymentType, &e.GroupID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, nil
	}

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT es.expense_id, es.member_key, es.share
		 FROM expense_splits es JOIN expenses e ON e.id = es.expense_id
		 WHERE e.date LIKE ? || '-%'`,
		month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID, member string
		var share float64
		if err := splitRows.Scan(&expenseID, &member, &share); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits[member] = share
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}

// ListMonths returns every month with at least one expense, most recent first.
func (s *SQLiteStore) ListMonths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT substr(date, 1, 7) AS month FROM expenses ORDER BY month DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate months: %w", err)
	}
	return months, nil
}
