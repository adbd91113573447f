package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retainmd/retain/internal/config"
	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/review"
	"github.com/retainmd/retain/internal/scheduler"
	"github.com/retainmd/retain/internal/sources"
	"github.com/retainmd/retain/internal/storage"
	"github.com/retainmd/retain/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "retain:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	repo, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer repo.Close()
	log.Info("database opened", "path", cfg.DatabasePath)

	vault, err := notes.NewDirStore(cfg.VaultDir)
	if err != nil {
		return err
	}

	priority, err := domain.NewPriority(cfg.DefaultPriority)
	if err != nil {
		return err
	}
	manager := review.NewManager(repo, vault, scheduler.New(), review.Options{
		RolloverOffset:  cfg.RolloverOffset(),
		ManagedDir:      cfg.ManagedDir,
		DefaultPriority: priority,
		QueueLimit:      cfg.QueueLimit,
		Logger:          log,
	})
	registry := sources.NewRegistry(repo, vault, manager, cfg.ReposDir, log)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: web.NewServer(manager, registry, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
