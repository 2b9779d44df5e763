package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nattw/harnkan/internal/auth"
	"github.com/nattw/harnkan/internal/line"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/reconcile"
	"github.com/nattw/harnkan/internal/service"
	"github.com/nattw/harnkan/internal/storage"
	"github.com/nattw/harnkan/internal/storage/sqlite"
	"github.com/nattw/harnkan/internal/webhook"
)

type nullMessenger struct{}

func (nullMessenger) Reply(context.Context, string, ...line.Message) error { return nil }
func (nullMessenger) Push(context.Context, string, ...line.Message) error  { return nil }
func (nullMessenger) GetMessageContent(context.Context, string) ([]byte, error) {
	return nil, nil
}

func sqliteStore(t *testing.T) (storage.Store, error) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { store.Close() })
	return store, nil
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store, err := sqliteStore(t)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	pinHash, err := auth.HashPIN("1234")
	if err != nil {
		t.Fatalf("failed to hash PIN: %v", err)
	}
	members := []*models.Member{
		{Key: "ALICE", RealName: "Alice Wonderland", PINHash: pinHash},
		{Key: "BOB"},
	}
	for _, m := range members {
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("failed to create member: %v", err)
		}
	}

	messenger := nullMessenger{}
	expenses := service.NewExpenseService(store)
	summaries := service.NewSummaryService(store, webhook.NewLineReportSender(messenger))
	matcher := reconcile.New(store, nil)
	wh := webhook.New(store, expenses, summaries, matcher, nil, messenger)
	linker := auth.NewLinker(store, auth.NewTokenManager("test-secret", 10*time.Minute))

	srv := New(wh, expenses, summaries, linker, "cron-secret")
	srv.now = func() time.Time {
		return time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	}
	return srv, store
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCronMonthly(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()
	ctx := context.Background()

	err := store.CreateTemplate(ctx, &models.RecurringTemplate{
		Description: "Rent",
		Amount:      12000,
		Payer:       "ALICE",
		Splits:      map[string]float64{"ALICE": 6000, "BOB": 6000},
		Active:      true,
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/cron/monthly", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool   `json:"success"`
		Generated int    `json:"generated"`
		Month     string `json:"month"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Generated != 1 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Month != "2026-08" {
		t.Errorf("report month = %s, want previous month 2026-08", resp.Month)
	}

	// The subscription expense landed in the current month.
	expenses, err := store.ListExpensesByMonth(ctx, "2026-09")
	if err != nil {
		t.Fatalf("ListExpensesByMonth failed: %v", err)
	}
	if len(expenses) != 1 || expenses[0].PaymentType != models.PaymentSubscription {
		t.Errorf("expenses = %+v", expenses)
	}
}

func TestCronMonthly_RequiresSecret(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/cron/monthly", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLinkAPI(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.Handler()

	// Step 1: trade the PIN for a token.
	body, _ := json.Marshal(map[string]string{"member": "alice", "pin": "1234"})
	req := httptest.NewRequest(http.MethodPost, "/api/link", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("link status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var linkResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&linkResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Step 2: trade the token for the binding.
	body, _ = json.Marshal(map[string]string{"token": linkResp.Token, "lineUserId": "U-alice-1"})
	req = httptest.NewRequest(http.MethodPost, "/api/link/confirm", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", rec.Code, rec.Body.String())
	}

	member, err := store.GetMemberByLineID(context.Background(), "U-alice-1")
	if err != nil {
		t.Fatalf("GetMemberByLineID failed: %v", err)
	}
	if member.Key != "ALICE" {
		t.Errorf("member = %+v", member)
	}
}

func TestLinkAPI_WrongPIN(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	body, _ := json.Marshal(map[string]string{"member": "ALICE", "pin": "9999"})
	req := httptest.NewRequest(http.MethodPost, "/api/link", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
