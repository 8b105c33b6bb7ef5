package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshkart/pos/internal/config"
	"github.com/freshkart/pos/internal/domain/admin"
	"github.com/freshkart/pos/internal/domain/billing"
	"github.com/freshkart/pos/internal/domain/cart"
	"github.com/freshkart/pos/internal/domain/catalog"
	"github.com/freshkart/pos/internal/domain/ledger"
	"github.com/freshkart/pos/internal/domain/view"
	"github.com/freshkart/pos/internal/infra/alerts"
	"github.com/freshkart/pos/internal/infra/assets"
	"github.com/freshkart/pos/internal/infra/db"
	httpx "github.com/freshkart/pos/internal/infra/http"
	"github.com/freshkart/pos/internal/infra/logger"
	"github.com/freshkart/pos/internal/infra/metrics"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	gw := catalog.NewPG(pool, log)

	var m *metrics.Set
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	state, err := cart.OpenState(cfg.Store.StatePath)
	if err != nil {
		log.Error("local state open failed", "path", cfg.Store.StatePath, "err", err)
		return
	}
	defer func() { _ = state.Close() }()

	images, err := assets.NewStore(cfg.Store.ImagesDir, cfg.HTTP.BaseURL)
	if err != nil {
		log.Error("images dir init failed", "err", err)
		return
	}

	catalogView := view.New(gw, log)
	if err := catalogView.Reload(ctx); err != nil {
		log.Warn("initial catalog load failed", "err", err)
	}
	go catalogView.Watch(ctx)

	led := ledger.New(gw, log, m)
	cartStore := cart.New(led, state, catalogView.ByName, log)
	recorder := billing.NewRecorder(gw, log, m)
	gate := admin.NewGate(cfg.Admin.Secret)

	if cfg.Alerts.TelegramToken != "" {
		notifier, err := alerts.New(cfg.Alerts.TelegramToken, cfg.Alerts.AdminChatID,
			cfg.Alerts.ThresholdKg, gw, log)
		if err != nil {
			log.Warn("alerts disabled", "err", err)
		} else {
			go notifier.Run(ctx)
			log.Info("low-stock alerts enabled", "threshold_kg", cfg.Alerts.ThresholdKg)
		}
	}

	api := httpx.NewAPI(catalogView, cartStore, recorder, gw, gate, images, state, log)
	srv := httpx.New(cfg.HTTP.Addr, api, images.Dir(), cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
