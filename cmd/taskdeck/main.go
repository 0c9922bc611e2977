package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"taskdeck/internal/config"
	"taskdeck/internal/session"
	"taskdeck/internal/storage"
	"taskdeck/internal/ui"
	"taskdeck/internal/web"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	local, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer local.Close()

	logger, closeLog, err := openLogger(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	tasks := storage.NewTaskStore(local)
	sessions := session.NewStore(storage.NewMemory())

	var g errgroup.Group

	var srv *web.Server
	if cfg.WebEnabled {
		srv = web.NewServer(tasks, logger)
		g.Go(func() error {
			return srv.Listen(fmt.Sprintf(":%d", cfg.WebPort))
		})
	}

	g.Go(func() error {
		defer func() {
			if srv == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("web shutdown failed", "err", err)
			}
		}()
		return ui.Run(tasks, sessions, cfg, logger)
	})

	if err := g.Wait(); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}

// openLogger writes structured logs next to the database so the notifier
// sink does not fight the terminal UI for the screen.
func openLogger(dbPath string) (*slog.Logger, func(), error) {
	path := filepath.Join(filepath.Dir(dbPath), "taskdeck.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(f, nil))
	return logger, func() { _ = f.Close() }, nil
}
