package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-relay/classifier"
	"chat-relay/domain"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility
	// is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := internal.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Durable store. The engine cannot safely operate without the
	// history backend reachable at startup, so failure here is fatal.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		_ = blugeWriter.Close()
	}()

	// 3. Core components
	directory, err := runtime.LoadDirectory(config.GroupSeedFile)
	if err != nil {
		return exitConfig, err
	}
	lexicon, err := classifier.NewLexicon()
	if err != nil {
		return exitRuntime, err
	}
	moderator, err := moderation.NewEmbeddedModerator(charReplacement)
	if err != nil {
		return exitRuntime, err
	}

	registry := runtime.NewRegistry()
	presence := runtime.NewPresence(logger, registry)
	history := repositories.NewHistoryRepository(db, logger, config.HistoryLimit)
	index := repositories.NewSearchIndex(blugeWriter, logger)
	appends := make(chan domain.Append, config.PersistQueueSize)
	router := runtime.NewRouter(logger, registry, directory, lexicon, moderator,
		appends, config.MaxMessageLength)

	// 4. Supervised background workers
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		workers.NewPersistWorker(logger, history, index, appends),
		workers.NewLivenessWorker(logger, registry, presence, config.HeartbeatInterval),
		workers.NewTelemetryWorker(logger, registry, config.TelemetryInterval),
	)
	go supervisor.Run(ctx)

	// 5. HTTP surface: duplex frames on /ws, queries beside it
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(logger, registry, presence, router, config.WriteTimeout))
	historyService := services.NewHistoryService(history, index)
	httpapi.NewHandler(logger, historyService, registry, config.HistoryLimit).Register(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Graceful shutdown: stop accepting, then stop the workers.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	logger.Info("Server stopped cleanly")

	return exitOK, nil
}
