package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ambatushop/pos-terminal/internal/auth"
	"github.com/ambatushop/pos-terminal/internal/backend"
	catalogapp "github.com/ambatushop/pos-terminal/internal/catalog/application"
	catalogrest "github.com/ambatushop/pos-terminal/internal/catalog/infrastructure/rest"
	checkoutapp "github.com/ambatushop/pos-terminal/internal/checkout/application"
	checkoutrest "github.com/ambatushop/pos-terminal/internal/checkout/infrastructure/rest"
	"github.com/ambatushop/pos-terminal/internal/config"
	"github.com/ambatushop/pos-terminal/internal/engine"
	historyrest "github.com/ambatushop/pos-terminal/internal/history/infrastructure/rest"
	scannerrest "github.com/ambatushop/pos-terminal/internal/scanner/infrastructure/rest"
	"github.com/ambatushop/pos-terminal/internal/server"
	"github.com/ambatushop/pos-terminal/pkg/idempotency"
	"github.com/ambatushop/pos-terminal/pkg/logging"
	"github.com/ambatushop/pos-terminal/pkg/shutdown"
	"github.com/ambatushop/pos-terminal/pkg/tracing"
)

func main() {
	cfg, err := config.Load(env("POS_CONFIG", "pos.yaml"))
	if err != nil {
		logging.New("info", "").Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg.App.LogLevel, cfg.App.LogFile)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "pos-terminal", log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Session: either a pre-issued token or cashier credentials.
	session := auth.NewSession()
	switch {
	case cfg.Backend.Token != "":
		session = auth.NewStaticSession(cfg.Backend.Token, 0)
	case cfg.Backend.Username != "":
		login := auth.NewClient(log, cfg.Backend.BaseURL, cfg.Backend.Timeout)
		if err := login.Login(ctx, session, cfg.Backend.Username, cfg.Backend.Password); err != nil {
			log.Error("login failed", "err", err)
			os.Exit(1)
		}
	default:
		log.Error("no backend credentials configured (backend.token or backend.username)")
		os.Exit(1)
	}

	// Submission guard: redis when configured, in-process otherwise.
	var guard checkoutapp.SubmissionGuard
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis unreachable", "addr", cfg.Redis.Addr, "err", err)
			os.Exit(1)
		}
		guard = idempotency.NewRedisStore(rdb, 24*time.Hour)
	} else {
		guard = idempotency.NewMemoryStore(24 * time.Hour)
	}

	client := backend.New(log, cfg.Backend.BaseURL, session, cfg.Backend.Timeout)
	catalog := catalogapp.NewCache(log, catalogrest.NewClient(client))

	eng := engine.New(
		log,
		session,
		catalog,
		checkoutrest.NewTransactionClient(client),
		checkoutrest.NewGatewayClient(client),
		guard,
		historyrest.NewClient(client),
		scannerrest.NewClient(client),
		engine.Options{
			PollInterval: cfg.Checkout.PollInterval,
			PollDeadline: cfg.Checkout.PollDeadline,
			HistoryLimit: cfg.History.DisplayLimit,
		},
	)
	if err := eng.Start(ctx); err != nil {
		log.Error("engine start failed", "err", err)
		os.Exit(1)
	}

	handler := server.NewHandler(log, eng)
	srv := &http.Server{
		Addr:        cfg.App.ListenAddr,
		Handler:     handler.Routes(),
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.App.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("pos-terminal shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
