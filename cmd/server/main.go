package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nattw/harnkan/internal/auth"
	"github.com/nattw/harnkan/internal/config"
	"github.com/nattw/harnkan/internal/line"
	"github.com/nattw/harnkan/internal/reconcile"
	"github.com/nattw/harnkan/internal/server"
	"github.com/nattw/harnkan/internal/service"
	"github.com/nattw/harnkan/internal/slipok"
	"github.com/nattw/harnkan/internal/storage/sqlite"
	"github.com/nattw/harnkan/internal/webhook"
	"github.com/nattw/harnkan/pkg/logging"
)

const linkTokenTTL = 10 * time.Minute

func main() {
	// Local development loads .env; in deployment the variables come
	// from the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	messenger := line.New(cfg.LineChannelToken)
	verifier := slipok.New(cfg.SlipOKAPIURL, cfg.SlipOKAPIKey)

	expenses := service.NewExpenseService(store)
	summaries := service.NewSummaryService(store, webhook.NewLineReportSender(messenger))
	matcher := reconcile.New(store, webhook.NewLineNotifier(messenger))
	wh := webhook.New(store, expenses, summaries, matcher, verifier, messenger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, linkTokenTTL)
	linker := auth.NewLinker(store, tokens)

	srv := server.New(wh, expenses, summaries, linker, cfg.CronSecret)

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
