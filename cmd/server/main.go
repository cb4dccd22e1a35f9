package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/krishanraja/adfixus-sales-sub001/internal/adapters/http"
	pg "github.com/krishanraja/adfixus-sales-sub001/internal/adapters/postgres"
	"github.com/krishanraja/adfixus-sales-sub001/internal/adapters/scanqueue"
	"github.com/krishanraja/adfixus-sales-sub001/internal/adapters/valkeycache"
	"github.com/krishanraja/adfixus-sales-sub001/internal/config"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
	"github.com/krishanraja/adfixus-sales-sub001/internal/scansync"
	scansvc "github.com/krishanraja/adfixus-sales-sub001/internal/services/scanner"
	"github.com/krishanraja/adfixus-sales-sub001/internal/slogger"
)

func main() {
	slogger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	queue := scanqueue.NewClient(cfg.AMQPURL)

	var cache ports.SummaryCache
	if cfg.ValkeyAddr != "" {
		vk, err := valkeycache.New(cfg.ValkeyAddr, cfg.SummaryTTL)
		if err != nil {
			slog.Error("valkey connect failed", "error", err)
			os.Exit(1)
		}
		defer vk.Close()
		cache = vk
	}

	syncCfg := scansync.Config{
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	}
	sessions := scansync.NewManager(db, db, queue, cache, syncCfg, cfg.SlotsPerPage)
	defer sessions.Close()

	scanner := scansvc.New(db, queue)
	srv := httpadapter.New(scanner, sessions)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	slog.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
}
