package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/keyring"
	"github.com/mtzanidakis/hacksim/internal/natsbus"
	"github.com/mtzanidakis/hacksim/internal/scheduler"
	"github.com/mtzanidakis/hacksim/internal/sim"
	"github.com/mtzanidakis/hacksim/internal/store"
	"github.com/mtzanidakis/hacksim/internal/web"
)

const geminiCredential = "gemini_api_key"

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting hacksim service", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	client, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer client.Close()

	// Keyring for provider credentials
	var kr *keyring.Keyring
	if passphrase := os.Getenv("HACKSIM_KEYRING_PASSPHRASE"); passphrase != "" {
		kr = keyring.New(passphrase, db)
		if cfg.Narrative.APIKey == "" {
			key, err := kr.Credential(geminiCredential)
			if err != nil {
				return fmt.Errorf("read credential: %w", err)
			}
			cfg.Narrative.APIKey = key
		}
	} else {
		slog.Warn("keyring passphrase not set, credential storage disabled")
	}

	// Simulation runner
	runner := sim.NewRunner(cfg, db, client)

	// Scheduler
	sched := scheduler.New(db, runner, client, cfg.Scheduler)
	go sched.Start(ctx)
	slog.Info("scheduler started")

	// Web dashboard
	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, runner, kr, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
		slog.Info("web server started", "port", cfg.Web.Port)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}
