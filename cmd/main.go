package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	auctionhttp "github.com/cristianortiz/sealedbid/internal/auction/infra/http"
	"github.com/cristianortiz/sealedbid/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/sealedbid/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/sealedbid/internal/auction/infra/websocket"
	"github.com/cristianortiz/sealedbid/internal/shared/clock"
	"github.com/cristianortiz/sealedbid/internal/shared/config"
	"github.com/cristianortiz/sealedbid/internal/shared/db"
	"github.com/cristianortiz/sealedbid/internal/shared/db/migrations"
	"github.com/cristianortiz/sealedbid/internal/shared/httpserver"
	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/cristianortiz/sealedbid/internal/shared/websocket"
	"go.uber.org/zap"
)

// storage is what main needs from a backend: the domain store plus seeding
type storage interface {
	domain.Store
	auctionhttp.Funder
}

func main() {
	logger := logger.GetLogger()
	defer logger.Sync()

	logger.Info("Starting sealed bid auction server...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	rules, err := domain.ParseRules(cfg.SettlementMode, cfg.CollateralRule, cfg.CommitmentScheme)
	if err != nil {
		logger.Fatal("Invalid auction rules", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		logger.Info("Running database migrations...")
		if err := migrations.RunMigrations(cfg.MigrationsPath, cfg.DB.DSN()); err != nil {
			logger.Fatal("Database migration failed", zap.Error(err))
		}
		pool, err := db.GetPostgresDBPool(ctx, cfg.DB.DSN())
		if err != nil {
			logger.Fatal("Database connection failed", zap.Error(err))
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	case config.BackendMemory:
		logger.Warn("Using in-memory store, state is lost on exit")
		store = memory.NewStore()
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	service := application.NewAuctionService(application.Deps{
		Store:    store,
		Clock:    clock.System{},
		Notifier: auctionws.NewHubNotifier(hub),
		Rules:    rules,
	})

	keeper := application.NewSettlementKeeper(service, store, clock.System{}, cfg.KeeperInterval, cfg.KeeperBatch)
	go keeper.Run(ctx)

	wsHandler := auctionws.NewAuctionWSHandler(service, hub)
	go wsHandler.ListenForMessages(ctx)

	server := httpserver.NewServer()
	wsHandler.RegisterRoutes(ctx, server.Router())
	auctionhttp.NewAuctionHandler(service, rules).RegisterRoutes(server.Router())
	if cfg.DevEndpoints {
		logger.Warn("Dev endpoints enabled")
		auctionhttp.NewDevHandler(store, store).RegisterRoutes(server.Router())
	}

	if err := server.Start(ctx, cfg.HTTPAddr); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
