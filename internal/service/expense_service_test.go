package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/session"
	"github.com/nattw/harnkan/internal/storage"
	"github.com/nattw/harnkan/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, key := range []string{"ALICE", "BOB", "CAROL"} {
		if err := store.CreateMember(ctx, &models.Member{Key: key}); err != nil {
			t.Fatalf("failed to create member: %v", err)
		}
	}
	return store
}

func TestSaveFromDraft_Normal(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	draft := session.Draft{
		Description:  "Dinner",
		Amount:       300,
		PaymentType:  models.PaymentNormal,
		Payer:        "alice",
		Participants: []string{"ALICE", "BOB", "CAROL"},
	}

	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	expenses, err := svc.SaveFromDraft(ctx, draft, base)
	if err != nil {
		t.Fatalf("SaveFromDraft failed: %v", err)
	}

	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.Date != "2026-08-15" || e.Amount != 300 || e.Payer != "ALICE" {
		t.Errorf("expense = %+v", e)
	}
	if e.GroupID != "" {
		t.Errorf("one-off expense should have no group ID, got %q", e.GroupID)
	}
	if e.Splits["BOB"] != 100 {
		t.Errorf("BOB share = %v", e.Splits["BOB"])
	}

	stored, err := store.ListExpensesByMonth(ctx, "2026-08")
	if err != nil {
		t.Fatalf("ListExpensesByMonth failed: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected 1 stored expense, got %d", len(stored))
	}
}

func TestSaveFromDraft_Installments(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	draft := session.Draft{
		Description:  "Sofa",
		Amount:       6000,
		PaymentType:  models.PaymentInstallment,
		Installments: 3,
		Payer:        "ALICE",
		Participants: []string{"ALICE", "BOB"},
	}

	base := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	expenses, err := svc.SaveFromDraft(ctx, draft, base)
	if err != nil {
		t.Fatalf("SaveFromDraft failed: %v", err)
	}

	if len(expenses) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(expenses))
	}

	wantDates := []string{"2026-11-20", "2026-12-20", "2027-01-20"}
	wantDescs := []string{"Sofa (1/3)", "Sofa (2/3)", "Sofa (3/3)"}
	for i, e := range expenses {
		if e.Date != wantDates[i] {
			t.Errorf("expense %d date = %s, want %s", i, e.Date, wantDates[i])
		}
		if e.Description != wantDescs[i] {
			t.Errorf("expense %d description = %q, want %q", i, e.Description, wantDescs[i])
		}
		if e.Amount != 2000 {
			t.Errorf("expense %d amount = %v, want 2000", i, e.Amount)
		}
		if e.Splits["BOB"] != 1000 {
			t.Errorf("expense %d BOB share = %v, want 1000", i, e.Splits["BOB"])
		}
		if e.GroupID == "" || e.GroupID != expenses[0].GroupID {
			t.Errorf("expense %d group ID = %q, want shared non-empty", i, e.GroupID)
		}
	}
}

func TestSaveFromDraft_Invalid(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		draft session.Draft
	}{
		{"no participants", session.Draft{Description: "X", Amount: 100, Payer: "ALICE"}},
		{"zero amount", session.Draft{Description: "X", Payer: "ALICE", Participants: []string{"BOB"}}},
		{"no payer", session.Draft{Description: "X", Amount: 100, Participants: []string{"BOB"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveFromDraft(ctx, tt.draft, base); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerateSubscriptions(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store)
	ctx := context.Background()

	err := store.CreateTemplate(ctx, &models.RecurringTemplate{
		Description: "Netflix",
		Amount:      420,
		Payer:       "ALICE",
		Splits:      map[string]float64{"ALICE": 140, "BOB": 140, "CAROL": 140},
		Active:      true,
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	created, err := svc.GenerateSubscriptions(ctx, "2026-09")
	if err != nil {
		t.Fatalf("GenerateSubscriptions failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	expenses, err := store.ListExpensesByMonth(ctx, "2026-09")
	if err != nil {
		t.Fatalf("ListExpensesByMonth failed: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.Date != "2026-09-01" || e.PaymentType != models.PaymentSubscription {
		t.Errorf("expense = %+v", e)
	}

	// A second run for the same month must be a no-op.
	created, err = svc.GenerateSubscriptions(ctx, "2026-09")
	if err != nil {
		t.Fatalf("second GenerateSubscriptions failed: %v", err)
	}
	if created != 0 {
		t.Errorf("second run created = %d, want 0", created)
	}

	// A new month generates again.
	created, err = svc.GenerateSubscriptions(ctx, "2026-10")
	if err != nil {
		t.Fatalf("third GenerateSubscriptions failed: %v", err)
	}
	if created != 1 {
		t.Errorf("third run created = %d, want 1", created)
	}
}
