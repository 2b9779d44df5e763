// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/session"
)

// Errors returned by Store implementations.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTransRef is returned by CreateVerifiedSettlement when
	// a verified settlement already carries the slip's transaction
	// reference. The check and the insert are one conditional write, so
	// concurrent submissions of the same slip cannot both succeed.
	ErrDuplicateTransRef = errors.New("transaction reference already verified")
)

// Store defines the persistence operations the services depend on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateMember persists a new member keyed by Member.Key.
	CreateMember(ctx context.Context, m *models.Member) error

	// GetMember retrieves a member by key. Returns ErrNotFound if absent.
	GetMember(ctx context.Context, key string) (*models.Member, error)

	// GetMemberByLineID resolves a chat-platform user ID to a member.
	// Returns ErrNotFound if no member is linked to the ID.
	GetMemberByLineID(ctx context.Context, lineUserID string) (*models.Member, error)

	// ListMemberKeys returns every member key, sorted ascending.
	ListMemberKeys(ctx context.Context) ([]string, error)

	// LinkMember binds a chat-platform user ID to the member.
	LinkMember(ctx context.Context, key, lineUserID string) error

	// CreateExpense persists a new expense. The ID and CreatedAt fields
	// are populated by the store when unset.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// ListExpensesByMonth returns all expenses whose date falls in the
	// given "2006-01" month, oldest first.
	ListExpensesByMonth(ctx context.Context, month string) ([]*models.Expense, error)

	// ListMonths returns every month that has at least one expense,
	// most recent first.
	ListMonths(ctx context.Context) ([]string, error)

	// CreateVerifiedSettlement persists a settlement with verified
	// status and its slip in one conditional write. Returns
	// ErrDuplicateTransRef if the slip's transaction reference already
	// backs a verified settlement.
	CreateVerifiedSettlement(ctx context.Context, s *models.Settlement) error

	// GetVerifiedSettlementByTransRef looks up the verified settlement
	// carrying the given transaction reference. Returns ErrNotFound if
	// none exists.
	GetVerifiedSettlementByTransRef(ctx context.Context, transRef string) (*models.Settlement, error)

	// ListVerifiedSettlements returns the verified settlements for a
	// month, oldest first.
	ListVerifiedSettlements(ctx context.Context, month string) ([]*models.Settlement, error)

	// GetSession retrieves the in-progress entry session for a chat
	// user. Returns ErrNotFound if the user has none.
	GetSession(ctx context.Context, userID string) (*session.Session, error)

	// PutSession creates or replaces the user's session.
	PutSession(ctx context.Context, s *session.Session) error

	// DeleteSession removes the user's session. Deleting a missing
	// session is not an error.
	DeleteSession(ctx context.Context, userID string) error

	// CreateTemplate persists a new recurring template. The ID and
	// CreatedAt fields are populated by the store when unset.
	CreateTemplate(ctx context.Context, t *models.RecurringTemplate) error

	// ListActiveTemplates returns all active recurring templates.
	ListActiveTemplates(ctx context.Context) ([]*models.RecurringTemplate, error)

	// MarkTemplateGenerated records that the template materialized an
	// expense for the given month.
	MarkTemplateGenerated(ctx context.Context, templateID, month string) error

	// Close releases any resources held by the store.
	Close() error
}
