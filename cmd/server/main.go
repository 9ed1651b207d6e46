package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/config"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/handlers"
	"github.com/MegaGrindStone/parcel-chat-ui/internal/services"
)

func main() {
	cfgDir, err := config.Dir()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfg, err := config.Load(filepath.Join(cfgDir, "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	level, err := cfg.Level()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dbPath := cfg.TranscriptPath
	if dbPath == "" {
		dbPath = filepath.Join(cfgDir, "transcripts.db")
	}
	boltDB, err := services.NewBoltDB(dbPath)
	if err != nil {
		panic(err)
	}
	defer boltDB.Close()

	tracking := services.NewTracking(cfg.APIURL, logger)
	logger.Info("Using tracking backend", slog.String("url", tracking.BaseURL()))

	m, err := handlers.NewMain(tracking, boltDB, logger)
	if err != nil {
		panic(err)
	}

	router, err := m.Router()
	if err != nil {
		panic(err)
	}

	// Create custom server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sseDone := make(chan struct{})
	srv.RegisterOnShutdown(func() {
		defer close(sseDone)
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String("err", err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", slog.String("err", err.Error()))
		}

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}

		// Replies still resolving are recorded before the database closes.
		select {
		case <-sseDone:
		case <-ctx.Done():
		}
	}
}
