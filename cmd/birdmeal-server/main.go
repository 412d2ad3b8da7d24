package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmcdole/birdmeal/internal/log"
	"github.com/mmcdole/birdmeal/internal/profileserver"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("birdmeal-server %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := profileserver.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.LogLevel)

	db, err := profileserver.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	repo := profileserver.NewRepository(db)
	defer repo.Close()

	if cfg.SeedPath != "" {
		seed, err := profileserver.LoadSeed(cfg.SeedPath)
		if err != nil {
			return err
		}
		if err := seed.Apply(repo, logger); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           profileserver.NewServer(repo, profileserver.NewMetrics(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "db", cfg.DBPath, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
