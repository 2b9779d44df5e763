package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nattw/harnkan/internal/ledger"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
)

// Summary is one member's view of a month: what they still need to send
// and what they are waiting to receive.
type Summary struct {
	Month  string
	Member string

	// ToPay are transfers owed by the member.
	ToPay []models.Transfer

	// ToReceive are transfers owed to the member.
	ToReceive []models.Transfer

	// HasExpenses is false when the month has no recorded expenses at
	// all, which callers report differently from a cleared balance.
	HasExpenses bool
}

// Cleared reports whether the member owes nothing and is owed nothing.
func (s *Summary) Cleared() bool {
	return len(s.ToPay) == 0 && len(s.ToReceive) == 0
}

// ReportSender delivers a monthly summary to a member over the chat
// platform.
type ReportSender interface {
	SendMonthlyReport(ctx context.Context, member *models.Member, summary *Summary) error
}

// ReportResult records the outcome of one member's report delivery.
type ReportResult struct {
	Member string `json:"member"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SummaryService computes per-member month summaries and fans out the
// monthly report.
type SummaryService struct {
	store  storage.Store
	sender ReportSender
}

// NewSummaryService creates a SummaryService. sender may be nil when
// only MonthSummary is used.
func NewSummaryService(store storage.Store, sender ReportSender) *SummaryService {
	return &SummaryService{store: store, sender: sender}
}

// MonthSummary computes the member's position for a "2006-01" month.
func (s *SummaryService) MonthSummary(ctx context.Context, memberKey, month string) (*Summary, error) {
	key := models.MemberKey(memberKey)
	summary := &Summary{Month: month, Member: key}

	expenses, err := s.store.ListExpensesByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for %s: %w", month, err)
	}
	if len(expenses) == 0 {
		return summary, nil
	}
	summary.HasExpenses = true

	members, err := s.store.ListMemberKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	res := ledger.Solve(month, expenses, members)
	if len(res.Unknown) > 0 {
		slog.Warn("expenses reference unregistered members", "month", month, "keys", res.Unknown)
	}

	for _, tr := range res.Transfers {
		switch key {
		case tr.From:
			summary.ToPay = append(summary.ToPay, tr)
		case tr.To:
			summary.ToReceive = append(summary.ToReceive, tr)
		}
	}
	return summary, nil
}

// SendMonthlyReports pushes the month's summary to every member linked
// to a chat account. One member's failure does not stop the rest; the
// per-member outcomes are returned.
func (s *SummaryService) SendMonthlyReports(ctx context.Context, month string) ([]ReportResult, error) {
	if s.sender == nil {
		return nil, fmt.Errorf("no report sender configured")
	}

	keys, err := s.store.ListMemberKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	var results []ReportResult
	for _, key := range keys {
		member, err := s.store.GetMember(ctx, key)
		if err != nil {
			results = append(results, ReportResult{Member: key, Status: "error", Error: err.Error()})
			continue
		}
		if member.LineUserID == "" {
			continue
		}

		summary, err := s.MonthSummary(ctx, key, month)
		if err != nil {
			results = append(results, ReportResult{Member: key, Status: "error", Error: err.Error()})
			continue
		}

		if err := s.sender.SendMonthlyReport(ctx, member, summary); err != nil {
			slog.Error("failed to send monthly report", "member", key, "error", err)
			results = append(results, ReportResult{Member: key, Status: "error", Error: err.Error()})
			continue
		}
		results = append(results, ReportResult{Member: key, Status: "sent"})
	}

	slog.Info("monthly reports sent", "month", month, "count", len(results))
	return results, nil
}
