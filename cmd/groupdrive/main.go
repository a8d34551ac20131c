package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlohr/groupdrive/internal/logger"
	"github.com/mlohr/groupdrive/pkg/adapter/rest"
	"github.com/mlohr/groupdrive/pkg/config"
	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/badgerstore"
	"github.com/mlohr/groupdrive/pkg/directory/memory"
	"github.com/mlohr/groupdrive/pkg/files"
	"github.com/mlohr/groupdrive/pkg/groups"
)

// newStore builds the configured store implementation.
func newStore(cfg *config.Config) (directory.Store, error) {
	switch cfg.Store.Type {
	case "badger":
		badgerCfg, err := cfg.Store.BadgerConfig()
		if err != nil {
			return nil, err
		}
		return badgerstore.Open(badgerstore.Config{
			Path:     badgerCfg.Path,
			InMemory: badgerCfg.InMemory,
		})
	default:
		return memory.NewStore(), nil
	}
}

// seedGroups loads the configured groups into the in-process registry.
func seedGroups(cfg *config.Config) *groups.Registry {
	registry := groups.NewRegistry()
	for _, group := range cfg.Groups {
		id := directory.GroupID(group.Name)
		registry.AddGroup(id, group.Roles...)
		for actor, role := range group.Members {
			registry.SetMember(id, actor, role)
		}
	}
	return registry
}

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger.SetLevel(level)
	logger.Info("Log level set to: %s", level)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store: %v", err)
		}
	}()
	logger.Info("Store initialized: %s", cfg.Store.Type)

	registry := seedGroups(cfg)
	logger.Info("Seeded %d group(s)", len(cfg.Groups))

	service := directory.NewService(store, registry, files.NewCatalog(), directory.Config{
		MaxDirectoriesPerGroup: cfg.Limits.MaxDirectoriesPerGroup,
		AdminRole:              cfg.Limits.AdminRole,
	})

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: rest.NewServer(service),
	}

	go func() {
		logger.Info("Listening on %s", cfg.Server.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
