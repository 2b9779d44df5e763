// Package service holds the application logic between the chat handlers
// and storage: turning finished entry drafts into expenses, generating
// subscription expenses and summarizing a member's month.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nattw/harnkan/internal/ledger"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/session"
	"github.com/nattw/harnkan/internal/storage"
)

// ExpenseService persists expenses from completed entry drafts and
// materializes recurring subscriptions.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates an ExpenseService with the given storage
// backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// SaveFromDraft turns a finished entry draft into one or more expenses
// and persists them. An installment draft of N months produces N
// expenses, one per month starting at baseDate, each carrying 1/N of
// the amount and a shared group ID.
func (s *ExpenseService) SaveFromDraft(ctx context.Context, d session.Draft, baseDate time.Time) ([]*models.Expense, error) {
	if len(d.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ledger.ErrInvalidInput)
	}

	installments := 1
	if d.PaymentType == models.PaymentInstallment && d.Installments > 1 {
		installments = d.Installments
	}

	groupID := ""
	if installments > 1 {
		groupID = uuid.NewString()
	}

	perMonth := d.Amount / float64(installments)
	share := perMonth / float64(len(d.Participants))

	expenses := make([]*models.Expense, 0, installments)
	for i := 0; i < installments; i++ {
		desc := d.Description
		if installments > 1 {
			desc = fmt.Sprintf("%s (%d/%d)", d.Description, i+1, installments)
		}

		splits := make(map[string]float64, len(d.Participants))
		for _, p := range d.Participants {
			splits[models.MemberKey(p)] = share
		}

		e := &models.Expense{
			Date:        baseDate.AddDate(0, i, 0).Format("2006-01-02"),
			Description: desc,
			Amount:      perMonth,
			Payer:       models.MemberKey(d.Payer),
			Splits:      splits,
			PaymentType: d.PaymentType,
			GroupID:     groupID,
		}
		if e.PaymentType == "" {
			e.PaymentType = models.PaymentNormal
		}
		if err := ledger.ValidateExpense(e); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	for _, e := range expenses {
		if err := s.store.CreateExpense(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to save expense: %w", err)
		}
	}

	slog.Info("expenses saved",
		"description", d.Description,
		"amount", d.Amount,
		"payer", d.Payer,
		"installments", installments,
	)
	return expenses, nil
}

// GenerateSubscriptions materializes one expense per active recurring
// template for the given "2006-01" month. Templates already generated
// for the month are skipped, so repeated runs are safe. Returns the
// number of expenses created.
func (s *ExpenseService) GenerateSubscriptions(ctx context.Context, month string) (int, error) {
	templates, err := s.store.ListActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list templates: %w", err)
	}

	created := 0
	for _, t := range templates {
		if t.LastGeneratedMonth == month {
			slog.Debug("subscription already generated", "description", t.Description, "month", month)
			continue
		}

		e := &models.Expense{
			Date:        month + "-01",
			Description: t.Description,
			Amount:      t.Amount,
			Payer:       t.Payer,
			Splits:      t.Splits,
			PaymentType: models.PaymentSubscription,
			GroupID:     t.ID,
		}
		if err := ledger.ValidateExpense(e); err != nil {
			slog.Error("skipping invalid subscription template", "template_id", t.ID, "error", err)
			continue
		}
		if err := s.store.CreateExpense(ctx, e); err != nil {
			return created, fmt.Errorf("failed to create subscription expense for %s: %w", t.ID, err)
		}
		if err := s.store.MarkTemplateGenerated(ctx, t.ID, month); err != nil {
			return created, fmt.Errorf("failed to mark template %s generated: %w", t.ID, err)
		}

		slog.Info("subscription expense created", "description", t.Description, "amount", t.Amount, "month", month)
		created++
	}
	return created, nil
}
