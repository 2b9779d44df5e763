// Package reconcile matches reported bank-transfer payments to the open
// transfer they satisfy, confirms the payee's identity and guards
// against reuse of the same slip.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nattw/harnkan/internal/ledger"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/namematch"
	"github.com/nattw/harnkan/internal/storage"
)

// AmountTolerance is how far a slip amount may drift from the computed
// transfer amount and still match, in currency units.
const AmountTolerance = 1.0

// Store is the slice of storage the matcher needs. *sqlite.SQLiteStore
// satisfies it.
type Store interface {
	ListExpensesByMonth(ctx context.Context, month string) ([]*models.Expense, error)
	ListMonths(ctx context.Context) ([]string, error)
	ListMemberKeys(ctx context.Context) ([]string, error)
	GetMember(ctx context.Context, key string) (*models.Member, error)
	GetVerifiedSettlementByTransRef(ctx context.Context, transRef string) (*models.Settlement, error)
	ListVerifiedSettlements(ctx context.Context, month string) ([]*models.Settlement, error)
	CreateVerifiedSettlement(ctx context.Context, s *models.Settlement) error
}

// Notifier delivers a best-effort "you were paid" message to the
// receiver. A failure is logged, never propagated.
type Notifier interface {
	SettlementVerified(ctx context.Context, receiver *models.Member, s *models.Settlement) error
}

// Payment is one reported bank transfer, typically the output of the
// slip-verification service plus the resolved submitter identity.
type Payment struct {
	// PayerKey is the member key of the submitter, already resolved
	// from their chat identity by the caller.
	PayerKey string

	// Amount is the transferred amount read from the slip.
	Amount float64

	// ReceiverDisplay and ReceiverName are the slip's receiver name
	// fields; the display form is tried first.
	ReceiverDisplay string
	ReceiverName    string

	// TransRef is the payment network's unique transaction reference.
	TransRef string

	TransDate     string
	TransTime     string
	SenderDisplay string
	SenderName    string
	SendingBank   string
	ReceivingBank string
}

// Scope selects which months to search for the matching transfer.
type Scope struct {
	// Month pins the search to one "2006-01" period. Ignored when
	// SearchAll is set.
	Month string

	// SearchAll walks every month that has expenses, most recent
	// first, skipping pairings already settled.
	SearchAll bool
}

// Matcher decides which settlement a payment satisfies and commits it.
type Matcher struct {
	store    Store
	notifier Notifier
}

// New creates a Matcher. notifier may be nil.
func New(store Store, notifier Notifier) *Matcher {
	return &Matcher{store: store, notifier: notifier}
}

// Match identifies the open transfer the payment satisfies, confirms
// the receiver's identity against the slip names, rejects reused slips
// and persists the verified settlement. On any failure nothing is
// written.
func (m *Matcher) Match(ctx context.Context, p Payment, scope Scope) (*models.Settlement, error) {
	if p.PayerKey == "" {
		return nil, fmt.Errorf("%w: payer key is required", ledger.ErrInvalidInput)
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %.2f", ledger.ErrInvalidInput, p.Amount)
	}
	if p.TransRef == "" {
		return nil, fmt.Errorf("%w: transaction reference is required", ledger.ErrInvalidInput)
	}

	payer := models.MemberKey(p.PayerKey)

	// Fast-path duplicate check; the insert below re-checks it as a
	// conditional write, so a concurrent duplicate still cannot commit.
	if _, err := m.store.GetVerifiedSettlementByTransRef(ctx, p.TransRef); err == nil {
		return nil, fmt.Errorf("trans ref %s: %w", p.TransRef, ErrDuplicatePayment)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	transfer, searched, err := m.findTransfer(ctx, payer, p.Amount, scope)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, &NoMatchError{Payer: payer, Amount: p.Amount, Months: searched}
	}

	receiver, err := m.store.GetMember(ctx, transfer.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load receiver %s: %w", transfer.To, err)
	}
	if receiver.RealName == "" {
		return nil, fmt.Errorf("receiver %s: %w", receiver.Key, ErrReceiverNotConfigured)
	}

	match := namematch.Match(receiver.RealName, p.ReceiverDisplay, p.ReceiverName)
	if !match.Matched {
		return nil, &MismatchError{
			Receiver:             receiver.Key,
			NormalizedRegistered: match.NormalizedRegistered,
			NormalizedSlip:       match.NormalizedSlip,
		}
	}

	settlement := &models.Settlement{
		Month:  transfer.Month,
		From:   transfer.From,
		To:     transfer.To,
		Amount: transfer.Amount,
		Status: models.StatusVerified,
		Slip: &models.Slip{
			TransRef:        p.TransRef,
			TransDate:       p.TransDate,
			TransTime:       p.TransTime,
			Amount:          p.Amount,
			SenderDisplay:   p.SenderDisplay,
			SenderName:      p.SenderName,
			ReceiverDisplay: p.ReceiverDisplay,
			ReceiverName:    p.ReceiverName,
			SendingBank:     p.SendingBank,
			ReceivingBank:   p.ReceivingBank,
			UploadedBy:      payer,
			MatchedField:    match.Field,
			MatchConfidence: match.Confidence,
		},
	}

	if err := m.store.CreateVerifiedSettlement(ctx, settlement); err != nil {
		if errors.Is(err, storage.ErrDuplicateTransRef) {
			return nil, fmt.Errorf("trans ref %s: %w", p.TransRef, ErrDuplicatePayment)
		}
		return nil, fmt.Errorf("failed to persist settlement: %w", err)
	}

	slog.Info("settlement verified",
		"from", settlement.From,
		"to", settlement.To,
		"amount", settlement.Amount,
		"month", settlement.Month,
		"matched_field", match.Field,
	)

	if m.notifier != nil {
		if err := m.notifier.SettlementVerified(ctx, receiver, settlement); err != nil {
			// Best effort: the settlement is already committed.
			slog.Warn("settlement notification failed",
				"to", receiver.Key,
				"error", err,
			)
		}
	}

	return settlement, nil
}

// findTransfer recomputes the month's transfers and walks them with the
// solver's own pairing order, returning the first one owed by the payer
// within tolerance of the reported amount. In SearchAll mode it scans
// every month with expenses, most recent first, skipping pairings
// already verified.
func (m *Matcher) findTransfer(ctx context.Context, payer string, amount float64, scope Scope) (*models.Transfer, []string, error) {
	var months []string
	if scope.SearchAll {
		all, err := m.store.ListMonths(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list months: %w", err)
		}
		months = all
	} else {
		if scope.Month == "" {
			return nil, nil, fmt.Errorf("%w: month is required unless searching all", ledger.ErrInvalidInput)
		}
		months = []string{scope.Month}
	}

	members, err := m.store.ListMemberKeys(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}

	for _, month := range months {
		expenses, err := m.store.ListExpensesByMonth(ctx, month)
		if err != nil {
			return nil, months, fmt.Errorf("failed to list expenses for %s: %w", month, err)
		}
		if len(expenses) == 0 {
			continue
		}

		res := ledger.Solve(month, expenses, members)
		if len(res.Unknown) > 0 {
			slog.Warn("expenses reference unregistered members", "month", month, "keys", res.Unknown)
		}

		var settled map[string]bool
		if scope.SearchAll {
			verified, err := m.store.ListVerifiedSettlements(ctx, month)
			if err != nil {
				return nil, months, fmt.Errorf("failed to list settlements for %s: %w", month, err)
			}
			settled = make(map[string]bool, len(verified))
			for _, s := range verified {
				settled[s.From+"->"+s.To] = true
			}
		}

		for i := range res.Transfers {
			tr := &res.Transfers[i]
			if tr.From != payer {
				continue
			}
			if math.Abs(tr.Amount-amount) >= AmountTolerance {
				continue
			}
			if settled != nil && settled[tr.From+"->"+tr.To] {
				continue
			}
			return tr, months, nil
		}
	}

	return nil, months, nil
}
