package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fsf-games/fsf-server/internal/auth"
	"github.com/fsf-games/fsf-server/internal/config"
	"github.com/fsf-games/fsf-server/internal/content"
	"github.com/fsf-games/fsf-server/internal/lobby"
	"github.com/fsf-games/fsf-server/internal/repository"
	"github.com/fsf-games/fsf-server/internal/server"
	"github.com/fsf-games/fsf-server/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting fsf server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Content registry errors are fatal: the engine cannot run without it.
	registry, err := content.Load(cfg.Content.Path)
	if err != nil {
		logger.Fatal("failed to load content registry", zap.Error(err))
	}
	registry, err = registry.Restrict(cfg.Content.AllowList)
	if err != nil {
		logger.Fatal("content allow-list is unusable", zap.Error(err))
	}
	logger.Info("content registry loaded",
		zap.Int("items", registry.ItemCount()),
		zap.Int("monsters", registry.MonsterCount()),
	)

	// Accounts are optional: no database URL means no account endpoints.
	var userRepo *repository.UserRepository
	if cfg.Database.URL != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()
		userRepo = repository.NewUserRepository(db)
		logger.Info("account store initialized",
			zap.Int32("total_conns", db.Stats().TotalConns()),
		)
	} else {
		logger.Warn("no database configured; accounts disabled")
	}

	tokenStore := auth.NewTokenStore(cfg.Auth.TokenTTL)
	go tokenStore.CleanupExpired(ctx)

	sessionMgr := session.NewManager(logger)
	lobbyMgr := lobby.NewManager(logger)

	srv := server.New(cfg.Game, registry, sessionMgr, lobbyMgr, userRepo, tokenStore, logger)

	mux := http.NewServeMux()
	srv.Register(mux)
	lobby.NewHandler(lobbyMgr, srv, cfg.Game.MaxPlayers, logger).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("fsf server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
