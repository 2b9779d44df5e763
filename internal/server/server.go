// Package server assembles the HTTP surface: the chat webhook, the
// scheduler endpoints, the account-link API and the operational
// endpoints.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/nattw/harnkan/internal/auth"
	"github.com/nattw/harnkan/internal/metrics"
	"github.com/nattw/harnkan/internal/middleware"
	"github.com/nattw/harnkan/internal/service"
	"github.com/nattw/harnkan/internal/webhook"
)

// Server wires handlers to the services.
type Server struct {
	webhook   *webhook.Handler
	expenses  *service.ExpenseService
	summaries *service.SummaryService
	linker    *auth.Linker
	cronKey   string
	now       func() time.Time
}

// New creates a Server.
func New(
	wh *webhook.Handler,
	expenses *service.ExpenseService,
	summaries *service.SummaryService,
	linker *auth.Linker,
	cronSecret string,
) *Server {
	return &Server{
		webhook:   wh,
		expenses:  expenses,
		summaries: summaries,
		linker:    linker,
		cronKey:   cronSecret,
		now:       time.Now,
	}
}

// Handler returns the routed HTTP handler, wrapped in request logging,
// CORS and h2c so the server speaks HTTP/2 behind a TLS-terminating
// proxy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /webhook", s.webhook)
	mux.Handle("POST /cron/monthly", middleware.RequireBearer(s.cronKey)(http.HandlerFunc(s.handleCronMonthly)))
	mux.HandleFunc("POST /api/link", s.handleLink)
	mux.HandleFunc("POST /api/link/confirm", s.handleLinkConfirm)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{})
}

// handleCronMonthly runs the monthly jobs: materialize this month's
// subscription expenses and push last month's summary to every linked
// member.
func (s *Server) handleCronMonthly(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	currentMonth := now.Format("2006-01")
	previousMonth := now.AddDate(0, -1, 0).Format("2006-01")

	generated, err := s.expenses.GenerateSubscriptions(r.Context(), currentMonth)
	if err != nil {
		slog.Error("subscription generation failed", "month", currentMonth, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	results, err := s.summaries.SendMonthlyReports(r.Context(), previousMonth)
	if err != nil {
		slog.Error("monthly report fan-out failed", "month", previousMonth, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"generated": generated,
		"month":     previousMonth,
		"processed": results,
	})
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Member string `json:"member"`
		PIN    string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	token, err := s.linker.BeginLink(r.Context(), req.Member, req.PIN)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrPINNotSet) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *Server) handleLinkConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token      string `json:"token"`
		LineUserID string `json:"lineUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	member, err := s.linker.ConfirmLink(r.Context(), req.Token, req.LineUserID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrMissingToken) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "member": member})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response encoding failed", "error", err)
	}
}
