package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lumi-launcher/backend/internal/api"
	"github.com/lumi-launcher/backend/internal/auth"
	"github.com/lumi-launcher/backend/internal/config"
	"github.com/lumi-launcher/backend/internal/database"
	"github.com/lumi-launcher/backend/internal/logging"
	"github.com/lumi-launcher/backend/internal/monitor"
	"github.com/lumi-launcher/backend/internal/runtimecheck"
	"github.com/lumi-launcher/backend/internal/server"
	"github.com/lumi-launcher/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	logger := logging.Component("main")

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	store := database.NewInstallationStore(db)

	executor := server.NewDefaultCommandExecutor()
	runtimeProbe := runtimecheck.NewProbe(executor, cfg.Runtime.Executable)

	scanner := server.NewFolderScanner()
	detector := server.NewLockDetector()
	prober := server.NewBatchProber(scanner, detector, 0)
	launcher := server.NewLauncher(server.NewPlatformStrategy(cfg.Runtime, executor), cfg.Runtime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	statusMonitor := monitor.NewMonitor(store, prober, hub, cfg.Monitor.Schedule)
	hub.SetMessageHandler(func(client *websocket.Client, msg *websocket.Message) {
		if msg.Type != "refresh" {
			return
		}
		if _, err := statusMonitor.RefreshNow(ctx); err != nil {
			logger.Warn("refresh_failed", "client_id", client.ID, "error", err)
		}
	})
	if cfg.Monitor.Enabled {
		if err := statusMonitor.Start(ctx); err != nil {
			log.Fatalf("Failed to start status monitor: %v", err)
		}
	}

	go func() {
		result := runtimeProbe.Check(ctx, cfg.Runtime.RequiredVersion)
		logger.Info("runtime_check",
			"installed", result.IsInstalled,
			"compatible", result.IsCompatible,
			"required", result.RequiredVersion)
	}()

	sessions, err := auth.NewSessionManager(cfg.Security.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}
	token, err := sessions.IssueToken()
	if err != nil {
		log.Fatalf("Failed to issue session token: %v", err)
	}
	if err := auth.WriteTokenFile(cfg.Security.TokenFile, token); err != nil {
		log.Fatalf("Failed to write session token: %v", err)
	}
	defer os.Remove(cfg.Security.TokenFile)
	logger.Info("session_token_written", "path", cfg.Security.TokenFile)

	router := api.SetupRouter(cfg, api.Dependencies{
		Runtime:   runtimeProbe,
		Scanner:   scanner,
		Detector:  detector,
		Prober:    prober,
		Processes: launcher,
		Store:     store,
		Refresher: statusMonitor,
		Hub:       hub,
		Sessions:  sessions,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Batch probes and launches have no deadline of their own.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown_started")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}

	cancel()
	statusMonitor.Stop()

	logger.Info("shutdown_complete")
}

func setupLogging(cfg *config.Config) error {
	if strings.TrimSpace(cfg.Logging.File) == "" {
		cfg.Logging.File = filepath.Join(cfg.Storage.DataDir, "logs", "launcher.log")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
		return err
	}
	_, err := logging.Init(cfg.Logging)
	return err
}
